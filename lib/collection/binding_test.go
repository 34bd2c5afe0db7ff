package collection_test

import (
	"context"
	"github.com/adrodb/adrodb/lib/collection"
	collectiontesting "github.com/adrodb/adrodb/lib/collection/testing"
	"github.com/adrodb/adrodb/lib/engine"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestBindingConformance(t *testing.T) {
	collectiontesting.RunCollectionTests(t, "LocalBinding", func(t *testing.T) collectiontesting.KV {
		ctx := context.Background()
		store := engine.NewTestStore(t)

		coll, err := collection.New("kv_conformance")
		require.NoError(t, err)

		binding, err := coll.Materialize(ctx, store.DB())
		require.NoError(t, err)
		return binding
	})
}

func TestSetRejectsZeroScalar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := engine.NewTestStore(t)

	coll, err := collection.New("c")
	require.NoError(t, err)
	binding, err := coll.Materialize(ctx, store.DB())
	require.NoError(t, err)

	err = binding.Set(ctx, "k", collection.Scalar{})
	require.Equal(t, collection.CodeTypeMismatch, collection.CodeOf(err))

	found, err := binding.Has(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}

func TestErrorsCarryCollectionContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := engine.NewTestStore(t)

	coll, err := collection.New("ctx_coll")
	require.NoError(t, err)
	binding, err := coll.Materialize(ctx, store.DB())
	require.NoError(t, err)

	_, err = binding.Get(ctx, "absent")
	require.Error(t, err)

	var cerr *collection.Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "ctx_coll", cerr.Collection)
	require.Equal(t, "get", cerr.Op)
	require.Equal(t, collection.CodeNotFound, cerr.Code)
}

func BenchmarkBinding(b *testing.B) {
	collectiontesting.RunCollectionBenchmarks(b, func(b *testing.B) collectiontesting.KV {
		ctx := context.Background()
		store := engine.NewTestStore(b)

		coll, err := collection.New("kv_bench")
		if err != nil {
			b.Fatalf("failed to create collection: %v", err)
		}
		binding, err := coll.Materialize(ctx, store.DB())
		if err != nil {
			b.Fatalf("failed to materialize collection: %v", err)
		}
		return binding
	})
}
