package common

import (
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name        string
		endpoint    string
		wantNetwork string
		wantAddr    string
		wantErr     bool
	}{
		{"tcp scheme", "tcp://127.0.0.1:8080", "tcp", "127.0.0.1:8080", false},
		{"bare host port", "localhost:9000", "tcp", "localhost:9000", false},
		{"unix scheme", "unix:///tmp/adrodb.sock", "unix", "/tmp/adrodb.sock", false},
		{"surrounding whitespace", "  tcp://10.0.0.1:80  ", "tcp", "10.0.0.1:80", false},
		{"empty", "", "", "", true},
		{"scheme only", "tcp://", "", "", true},
		{"unix without path", "unix://", "", "", true},
		{"unsupported scheme", "http://host:80", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network, addr, err := ParseEndpoint(tt.endpoint)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantNetwork, network)
			require.Equal(t, tt.wantAddr, addr)
		})
	}
}

func TestItemRequestScalar(t *testing.T) {
	// Typed value travels as tagged text and converts back exactly.
	req, err := NewItemRequest(collection.Integer(42))
	require.NoError(t, err)
	require.Equal(t, ItemRequest{Type: "integer", Value: "42"}, req)

	value, err := req.Scalar()
	require.NoError(t, err)
	require.Equal(t, collection.Integer(42), value)

	// Missing type defaults to text.
	value, err = ItemRequest{Value: "raw"}.Scalar()
	require.NoError(t, err)
	require.Equal(t, collection.Text("raw"), value)

	// Unknown kinds and unparsable payloads are rejected.
	_, err = ItemRequest{Type: "blob", Value: "x"}.Scalar()
	require.Error(t, err)

	_, err = ItemRequest{Type: "integer", Value: "abc"}.Scalar()
	require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))

	// The zero scalar has no wire form.
	_, err = NewItemRequest(collection.Scalar{})
	require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))
}

func TestItemResponseScalar(t *testing.T) {
	resp, err := NewItemResponse("pi", collection.Float(3.25))
	require.NoError(t, err)
	require.Equal(t, ItemResponse{Key: "pi", Type: "float", Value: "3.25"}, resp)

	value, err := resp.Scalar()
	require.NoError(t, err)
	require.Equal(t, collection.Float(3.25), value)
}

func TestNewErrorResponse(t *testing.T) {
	err := collection.NewError(collection.CodeNotFound, `no row for key "jimmy"`)
	resp := NewErrorResponse(err)
	require.Equal(t, "not_found", resp.Code)
	require.Contains(t, resp.Message, "jimmy")
}

func TestConfigString(t *testing.T) {
	sc := &ServerConfig{
		Endpoint:      "tcp://127.0.0.1:8080",
		DBPath:        "data.sqlite",
		TimeoutSecond: 30,
		Collections:   []string{"user_emails"},
		LogLevel:      "info",
	}
	out := sc.String()
	require.Contains(t, out, "tcp://127.0.0.1:8080")
	require.Contains(t, out, "data.sqlite")
	require.Contains(t, out, "user_emails")

	cc := &ClientConfig{Endpoint: "unix:///tmp/a.sock", TimeoutSecond: 5, RetryCount: 2, Codec: "msgpack"}
	out = cc.String()
	require.Contains(t, out, "unix:///tmp/a.sock")
	require.Contains(t, out, "msgpack")
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := NewLogger(level, true)
		require.NoError(t, err)
		require.NotNil(t, log)
	}

	log, err := NewLogger("info", false)
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = NewLogger("chatty", false)
	require.Error(t, err)
}
