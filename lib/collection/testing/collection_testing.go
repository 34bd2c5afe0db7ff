package testing

import (
	"context"
	"fmt"
	"github.com/adrodb/adrodb/lib/collection"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
)

// KV is the operation surface the suite validates. *collection.Binding
// satisfies it, as does the REST client's remote collection handle.
type KV interface {
	Set(ctx context.Context, key string, value collection.Scalar) error
	Get(ctx context.Context, key string) (collection.Scalar, error)
	GetText(ctx context.Context, key string) (string, error)
	GetInteger(ctx context.Context, key string) (int64, error)
	GetFloat(ctx context.Context, key string) (float64, error)
	GetBool(ctx context.Context, key string) (bool, error)
	Has(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) (int64, error)
}

// Factory creates a fresh, empty, materialized collection for one subtest.
// Cleanup is registered on t.
type Factory func(t *testing.T) KV

// RunCollectionTests runs the conformance suite against the implementation
// produced by factory.
func RunCollectionTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory(t))
		})

		t.Run("InsertOnly", func(t *testing.T) {
			testInsertOnly(t, factory(t))
		})

		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, factory(t))
		})

		t.Run("Coercion", func(t *testing.T) {
			testCoercion(t, factory(t))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory(t))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(t))
		})

		t.Run("Scenario", func(t *testing.T) {
			testScenario(t, factory(t))
		})

		t.Run("ConcurrentSet", func(t *testing.T) {
			testConcurrentSet(t, factory(t))
		})
	})
}

func testRoundTrip(t *testing.T, kv KV) {
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "text_key", collection.Text("hello world")))
	require.NoError(t, kv.Set(ctx, "int_key", collection.Integer(-42)))
	require.NoError(t, kv.Set(ctx, "float_key", collection.Float(3.25)))
	require.NoError(t, kv.Set(ctx, "bool_key", collection.Bool(true)))

	text, err := kv.GetText(ctx, "text_key")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	i, err := kv.GetInteger(ctx, "int_key")
	require.NoError(t, err)
	require.Equal(t, int64(-42), i)

	f, err := kv.GetFloat(ctx, "float_key")
	require.NoError(t, err)
	require.Equal(t, 3.25, f)

	b, err := kv.GetBool(ctx, "bool_key")
	require.NoError(t, err)
	require.True(t, b)
}

func testInsertOnly(t *testing.T, kv KV) {
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "key", collection.Text("first")))

	err := kv.Set(ctx, "key", collection.Text("second"))
	require.Error(t, err)
	require.Equal(t, collection.CodeConstraintViolation, collection.CodeOf(err))

	// The failed set must not have touched the stored value.
	value, err := kv.GetText(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "first", value)
}

func testGetMissing(t *testing.T, kv KV) {
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	require.Error(t, err)
	require.Equal(t, collection.CodeNotFound, collection.CodeOf(err))

	_, err = kv.GetText(ctx, "missing")
	require.Error(t, err)
	require.Equal(t, collection.CodeNotFound, collection.CodeOf(err))
}

func testCoercion(t *testing.T, kv KV) {
	ctx := context.Background()

	// Numeric text reads back as integer and as float.
	require.NoError(t, kv.Set(ctx, "numeric_text", collection.Text("123")))

	i, err := kv.GetInteger(ctx, "numeric_text")
	require.NoError(t, err)
	require.Equal(t, int64(123), i)

	f, err := kv.GetFloat(ctx, "numeric_text")
	require.NoError(t, err)
	require.Equal(t, float64(123), f)

	// Booleans are stored in the engine's native integer representation.
	require.NoError(t, kv.Set(ctx, "flag", collection.Bool(true)))

	b, err := kv.GetBool(ctx, "flag")
	require.NoError(t, err)
	require.True(t, b)

	stored, err := kv.Get(ctx, "flag")
	require.NoError(t, err)
	require.Equal(t, collection.ScalarInteger, stored.Kind())

	// Arbitrary text is not a recognized boolean literal or number.
	require.NoError(t, kv.Set(ctx, "not_bool", collection.Text("abc")))

	_, err = kv.GetBool(ctx, "not_bool")
	require.Error(t, err)
	require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))

	_, err = kv.GetInteger(ctx, "not_bool")
	require.Error(t, err)
	require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))
}

func testHas(t *testing.T, kv KV) {
	ctx := context.Background()

	found, err := kv.Has(ctx, "key")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, kv.Set(ctx, "key", collection.Text("value")))

	found, err = kv.Has(ctx, "key")
	require.NoError(t, err)
	require.True(t, found)
}

func testRemove(t *testing.T, kv KV) {
	ctx := context.Background()

	// Removing an absent key is not an error.
	affected, err := kv.Remove(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, int64(0), affected)

	require.NoError(t, kv.Set(ctx, "key", collection.Text("value")))

	affected, err = kv.Remove(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = kv.Get(ctx, "key")
	require.Equal(t, collection.CodeNotFound, collection.CodeOf(err))

	affected, err = kv.Remove(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, int64(0), affected)
}

func testScenario(t *testing.T, kv KV) {
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "jimmy", collection.Text("abc@abc.com")))

	email, err := kv.GetText(ctx, "jimmy")
	require.NoError(t, err)
	require.Equal(t, "abc@abc.com", email)

	affected, err := kv.Remove(ctx, "jimmy")
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	_, err = kv.GetText(ctx, "jimmy")
	require.Equal(t, collection.CodeNotFound, collection.CodeOf(err))
}

func testConcurrentSet(t *testing.T, kv KV) {
	const (
		workers       = 8
		keysPerWorker = 8
	)

	ctx := context.Background()
	errs := make(chan error, workers*keysPerWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for k := 0; k < keysPerWorker; k++ {
				key := fmt.Sprintf("worker%d_key%d", w, k)
				if err := kv.Set(ctx, key, collection.Integer(int64(k))); err != nil {
					errs <- fmt.Errorf("set %s: %w", key, err)
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent set failed: %v", err)
	}

	for w := 0; w < workers; w++ {
		for k := 0; k < keysPerWorker; k++ {
			key := fmt.Sprintf("worker%d_key%d", w, k)
			found, err := kv.Has(ctx, key)
			require.NoError(t, err)
			require.True(t, found, "key %s missing after concurrent set", key)
		}
	}
}
