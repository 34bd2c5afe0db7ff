package client_test

import (
	"context"
	"github.com/adrodb/adrodb/lib/collection"
	collectiontesting "github.com/adrodb/adrodb/lib/collection/testing"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/adrodb/adrodb/rest/client"
	"github.com/adrodb/adrodb/rest/codec"
	"github.com/adrodb/adrodb/rest/common"
	"github.com/adrodb/adrodb/rest/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// newBackend spins up a full REST server over a fresh in-memory engine and
// returns its tcp:// endpoint.
func newBackend(t *testing.T, autoCreate bool) string {
	t.Helper()
	store := engine.NewTestStore(t)
	srv := server.NewServer(common.ServerConfig{
		Endpoint:      "tcp://127.0.0.1:0",
		TimeoutSecond: 5,
		AutoCreate:    autoCreate,
	}, store, zap.NewNop())

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return "tcp://" + strings.TrimPrefix(ts.URL, "http://")
}

func newClient(t *testing.T, endpoint, codecName string) *client.Client {
	t.Helper()
	c, err := client.New(common.ClientConfig{
		Endpoint:      endpoint,
		TimeoutSecond: 5,
		RetryCount:    1,
		Codec:         codecName,
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestRemoteCollections drives the shared collection test suite through the
// full stack (client, codec, HTTP, server, engine) once per codec.
func TestRemoteCollections(t *testing.T) {
	for _, codecName := range codec.Names() {
		factory := func(t *testing.T) collectiontesting.KV {
			endpoint := newBackend(t, true)
			c := newClient(t, endpoint, codecName)
			return c.Collection("kv_conformance")
		}
		collectiontesting.RunCollectionTests(t, "REST_"+codecName, factory)
	}
}

func TestCreateCollection(t *testing.T) {
	endpoint := newBackend(t, false)
	c := newClient(t, endpoint, "")
	ctx := context.Background()

	t.Run("RemoteOpsNeedMaterialization", func(t *testing.T) {
		err := c.Collection("users").Set(ctx, "k", collection.Text("v"))
		require.Equal(t, collection.CodeNotInitialized, collection.CodeOf(err))
	})

	t.Run("CreateThenUse", func(t *testing.T) {
		require.NoError(t, c.CreateCollection(ctx, "users"))
		require.NoError(t, c.CreateCollection(ctx, "users")) // idempotent

		users := c.Collection("users")
		require.NoError(t, users.Set(ctx, "k", collection.Text("v")))
		got, err := users.GetText(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v", got)
	})

	t.Run("InvalidName", func(t *testing.T) {
		err := c.CreateCollection(ctx, "users; DROP TABLE users")
		require.Equal(t, collection.CodeSchemaError, collection.CodeOf(err))
	})
}

// TestErrorSymmetry pins that remote failures classify exactly like local
// ones, including the collection and operation context on the error.
func TestErrorSymmetry(t *testing.T) {
	endpoint := newBackend(t, true)
	c := newClient(t, endpoint, "")
	ctx := context.Background()
	users := c.Collection("users")

	require.NoError(t, users.Set(ctx, "jimmy", collection.Text("abc@abc.com")))

	t.Run("ConstraintViolation", func(t *testing.T) {
		err := users.Set(ctx, "jimmy", collection.Text("other"))
		require.Equal(t, collection.CodeConstraintViolation, collection.CodeOf(err))

		var cerr *collection.Error
		require.ErrorAs(t, err, &cerr)
		require.Equal(t, "users", cerr.Collection)
		require.Equal(t, "set", cerr.Op)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := users.Get(ctx, "ghost")
		require.Equal(t, collection.CodeNotFound, collection.CodeOf(err))
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		_, err := users.GetInteger(ctx, "jimmy")
		require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))
	})
}

func TestKeysWithAwkwardCharacters(t *testing.T) {
	endpoint := newBackend(t, true)
	c := newClient(t, endpoint, "")
	ctx := context.Background()
	coll := c.Collection("awkward")

	// Keys travel as path segments and must survive escaping.
	for _, key := range []string{"with space", "u:p@host", "email@example.com", "küche"} {
		require.NoError(t, coll.Set(ctx, key, collection.Text(key)))
		got, err := coll.GetText(ctx, key)
		require.NoError(t, err)
		require.Equal(t, key, got)
	}
}

func TestHealth(t *testing.T) {
	endpoint := newBackend(t, false)
	c := newClient(t, endpoint, "")

	resp, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, common.ServiceName, resp.Name)
	require.Equal(t, "pass", resp.Status)
}

func TestRetriesExhausted(t *testing.T) {
	// Reserve a port, then close the listener so every dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := "tcp://" + ln.Addr().String()
	require.NoError(t, ln.Close())

	c, err := client.New(common.ClientConfig{
		Endpoint:      endpoint,
		TimeoutSecond: 1,
		RetryCount:    2,
	})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Health(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := client.New(common.ClientConfig{Endpoint: "ftp://nope"})
	require.Error(t, err)

	_, err = client.New(common.ClientConfig{Endpoint: "tcp://localhost:8080", Codec: "xml"})
	require.Error(t, err)
}
