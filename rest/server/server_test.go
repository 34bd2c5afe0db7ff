package server

import (
	"bytes"
	"context"
	"fmt"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/adrodb/adrodb/rest/codec"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func newTestServer(t *testing.T, autoCreate bool) *Server {
	t.Helper()
	store := engine.NewTestStore(t)
	cfg := common.ServerConfig{
		Endpoint:      "tcp://127.0.0.1:0",
		TimeoutSecond: 5,
		AutoCreate:    autoCreate,
	}
	return NewServer(cfg, store, zap.NewNop())
}

// do runs a request against the router using the given codec for both body
// encoding and response negotiation.
func do(t *testing.T, srv *Server, c codec.ICodec, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := c.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", c.ContentType())
	req.Header.Set("Accept", c.ContentType())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, c codec.ICodec, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, c.Unmarshal(rec.Body.Bytes(), v))
}

func jsonCodec(t *testing.T) codec.ICodec {
	t.Helper()
	c, err := codec.NewCodec("json")
	require.NoError(t, err)
	return c
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestCreateCollection(t *testing.T) {
	srv := newTestServer(t, false)
	c := jsonCodec(t)

	t.Run("Creates", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPost, "/api/v1/collections", common.CollectionRequest{Name: "users"})
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp common.CollectionResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, "users", resp.Name)
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPost, "/api/v1/collections", common.CollectionRequest{Name: "users"})
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("RejectsInvalidName", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPost, "/api/v1/collections", common.CollectionRequest{Name: "users; DROP TABLE users"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "schema_error", rec.Header().Get(common.HeaderErrorCode))
	})

	t.Run("RejectsGarbageBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid", rec.Header().Get(common.HeaderErrorCode))
	})
}

func TestItemRoutes(t *testing.T) {
	srv := newTestServer(t, true)
	c := jsonCodec(t)

	t.Run("SetAndGet", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPut, "/api/v1/collections/users/items/jimmy",
			common.ItemRequest{Type: "text", Value: "abc@abc.com"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/jimmy", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp common.ItemResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, "jimmy", resp.Key)
		require.Equal(t, "text", resp.Type)
		require.Equal(t, "abc@abc.com", resp.Value)
	})

	t.Run("DuplicateKeyConflicts", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPut, "/api/v1/collections/users/items/jimmy",
			common.ItemRequest{Type: "text", Value: "other@abc.com"})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "constraint_violation", rec.Header().Get(common.HeaderErrorCode))

		// The stored value must be untouched by the rejected write.
		rec = do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/jimmy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp common.ItemResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, "abc@abc.com", resp.Value)
	})

	t.Run("GetMissing", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/ghost", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", rec.Header().Get(common.HeaderErrorCode))

		var resp common.ErrorResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, "not_found", resp.Code)
		require.Contains(t, resp.Message, "ghost")
	})

	t.Run("TypedGet", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPut, "/api/v1/collections/users/items/age",
			common.ItemRequest{Type: "text", Value: "42"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/age?type=integer", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp common.ItemResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, "integer", resp.Type)
		require.Equal(t, "42", resp.Value)

		rec = do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/jimmy?type=integer", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "type_mismatch", rec.Header().Get(common.HeaderErrorCode))

		rec = do(t, srv, c, http.MethodGet, "/api/v1/collections/users/items/age?type=wat", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid", rec.Header().Get(common.HeaderErrorCode))
	})

	t.Run("Head", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodHead, "/api/v1/collections/users/items/jimmy", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, srv, c, http.MethodHead, "/api/v1/collections/users/items/ghost", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", rec.Header().Get(common.HeaderErrorCode))
	})

	t.Run("Delete", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodDelete, "/api/v1/collections/users/items/jimmy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp common.RemoveResponse
		decodeInto(t, c, rec, &resp)
		require.Equal(t, int64(1), resp.Removed)

		// Removing an absent key is a success with a zero count.
		rec = do(t, srv, c, http.MethodDelete, "/api/v1/collections/users/items/jimmy", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeInto(t, c, rec, &resp)
		require.Equal(t, int64(0), resp.Removed)
	})

	t.Run("RejectsBadValue", func(t *testing.T) {
		rec := do(t, srv, c, http.MethodPut, "/api/v1/collections/users/items/bad",
			common.ItemRequest{Type: "integer", Value: "not a number"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "type_mismatch", rec.Header().Get(common.HeaderErrorCode))
	})
}

func TestWithoutAutoCreate(t *testing.T) {
	srv := newTestServer(t, false)
	c := jsonCodec(t)

	rec := do(t, srv, c, http.MethodGet, "/api/v1/collections/nowhere/items/k", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_initialized", rec.Header().Get(common.HeaderErrorCode))

	rec = do(t, srv, c, http.MethodPut, "/api/v1/collections/nowhere/items/k",
		common.ItemRequest{Value: "v"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_initialized", rec.Header().Get(common.HeaderErrorCode))
}

func TestConfiguredCollections(t *testing.T) {
	store := engine.NewTestStore(t)
	cfg := common.ServerConfig{
		Endpoint:      "tcp://127.0.0.1:0",
		TimeoutSecond: 1,
		Collections:   []string{"preflight"},
	}
	srv := NewServer(cfg, store, zap.NewNop())
	require.NoError(t, srv.materializeConfigured(context.Background()))

	c := jsonCodec(t)
	rec := do(t, srv, c, http.MethodPut, "/api/v1/collections/preflight/items/k",
		common.ItemRequest{Value: "v"})
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestMsgpackNegotiation(t *testing.T) {
	srv := newTestServer(t, true)
	mp, err := codec.NewCodec("msgpack")
	require.NoError(t, err)

	rec := do(t, srv, mp, http.MethodPut, "/api/v1/collections/bin/items/k",
		common.ItemRequest{Type: "integer", Value: "7"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, mp.ContentType(), rec.Header().Get("Content-Type"))

	rec = do(t, srv, mp, http.MethodGet, "/api/v1/collections/bin/items/k", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp common.ItemResponse
	decodeInto(t, mp, rec, &resp)
	require.Equal(t, "integer", resp.Type)
	require.Equal(t, "7", resp.Value)
}

func TestUnsupportedContentType(t *testing.T) {
	srv := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid", rec.Header().Get(common.HeaderErrorCode))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)
	c := jsonCodec(t)

	rec := do(t, srv, c, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp common.HealthResponse
	decodeInto(t, c, rec, &resp)
	require.Equal(t, common.ServiceName, resp.Name)
	require.Equal(t, "pass", resp.Status)
	require.Equal(t, common.Version, resp.Version)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, true)
	c := jsonCodec(t)

	// Generate at least one measurable request first.
	do(t, srv, c, http.MethodGet, "/health", nil)

	rec := do(t, srv, c, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "adrodb_http_requests_total")
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(common.HeaderRequestID, "trace-me-123")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, "trace-me-123", rec.Header().Get(common.HeaderRequestID))

	// Without an incoming id the server mints one.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, rec.Header().Get(common.HeaderRequestID))
}

func TestServeUnixSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "adrodb.sock")

	// A stale socket from an unclean exit must not block startup.
	require.NoError(t, os.WriteFile(socket, nil, 0o600))

	store := engine.NewTestStore(t)
	cfg := common.ServerConfig{
		Endpoint:      fmt.Sprintf("unix://%s", socket),
		TimeoutSecond: 1,
	}
	srv := NewServer(cfg, store, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	// Wait for the listener to come up, then probe it.
	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServeRejectsBadEndpoint(t *testing.T) {
	store := engine.NewTestStore(t)
	srv := NewServer(common.ServerConfig{Endpoint: "ftp://nope"}, store, zap.NewNop())

	err := srv.Serve(context.Background())
	require.Error(t, err)
}
