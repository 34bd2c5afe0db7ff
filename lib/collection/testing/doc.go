// Package testing provides a reusable conformance suite for implementations
// of the collection operation surface.
//
// Any type exposing the typed CRUD protocol (the local Binding as well as the
// REST client's remote collection handle) can be validated with the same
// suite, which keeps the semantics identical on both sides of the wire:
//
//	func TestMyBackend(t *testing.T) {
//		collectiontesting.RunCollectionTests(t, "MyBackend", func(t *testing.T) collectiontesting.KV {
//			// return a fresh, empty, materialized collection
//		})
//	}
//
// The suite covers round-trips for every scalar kind, the insert-only write
// policy, removal semantics, presence probes, the coercion matrix edge cases
// and concurrent writers.
package testing
