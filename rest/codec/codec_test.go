package codec

import (
	"github.com/adrodb/adrodb/rest/common"
	"github.com/stretchr/testify/require"
	"testing"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"JSON":    NewJSONCodec,
	"Msgpack": NewMsgpackCodec,
	"GOB":     NewGOBCodec,
}

func roundTrip[T any](t *testing.T, c ICodec, in T) {
	t.Helper()

	data, err := c.Marshal(in)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	var out T
	require.NoError(t, c.Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			roundTrip(t, c, common.CollectionRequest{Name: "user_emails"})
			roundTrip(t, c, common.ItemRequest{Type: "integer", Value: "42"})
			roundTrip(t, c, common.ItemRequest{Value: "plain text with unicode ÄÖÜ"})
			roundTrip(t, c, common.ItemResponse{Key: "jimmy", Type: "text", Value: "abc@abc.com"})
			roundTrip(t, c, common.RemoveResponse{Removed: 1})
			roundTrip(t, c, common.HealthResponse{Name: "adrodb", Status: "pass", Version: "0.1.0"})
			roundTrip(t, c, common.ErrorResponse{Code: "not_found", Message: `no row for key "jimmy"`})
		})
	}
}

func TestUnmarshalInvalidData(t *testing.T) {
	invalid := [][]byte{
		{0xc1},
		{0xff, 0x00, 0xab, 0x17},
		[]byte("{not valid"),
	}

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()
			for _, data := range invalid {
				var out common.ItemResponse
				require.Error(t, c.Unmarshal(data, &out))
			}
		})
	}
}

func TestNewCodec(t *testing.T) {
	for _, name := range Names() {
		c, err := NewCodec(name)
		require.NoError(t, err)
		require.Equal(t, name, c.GetName())
	}

	// Empty name selects the default.
	c, err := NewCodec("")
	require.NoError(t, err)
	require.Equal(t, DefaultName, c.GetName())

	_, err = NewCodec("protobuf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown codec")

	require.Equal(t, []string{"gob", "json", "msgpack"}, Names())
}

func TestForContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantName    string
		wantErr     bool
	}{
		{"application/json", "json", false},
		{"application/json; charset=utf-8", "json", false},
		{"application/msgpack", "msgpack", false},
		{"application/gob", "gob", false},
		{"", DefaultName, false},
		{"text/plain", "", true},
		{"application/", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			c, err := ForContentType(tt.contentType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantName, c.GetName())
		})
	}
}

func TestContentTypesMatchRegistry(t *testing.T) {
	for _, name := range Names() {
		c, err := NewCodec(name)
		require.NoError(t, err)

		viaContentType, err := ForContentType(c.ContentType())
		require.NoError(t, err)
		require.Equal(t, name, viaContentType.GetName())
	}
}
