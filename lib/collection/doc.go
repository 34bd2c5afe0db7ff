// Package collection provides a minimal typed key-value abstraction on top
// of a relational engine: callers name a logical collection, obtain a bound
// handle, and perform typed set/get/remove operations against a fixed
// two-column schema (key, value) per collection.
//
// The package focuses on:
//   - Collection lifecycle: declare (New), create (Materialize, idempotent)
//     or attach to an existing table (BindExisting)
//   - A typed CRUD protocol with scalar coercion across heterogeneous storage
//   - A closed error taxonomy callers can branch on via CodeOf
//
// Key components:
//
//   - Collection: a descriptor carrying only the validated collection name.
//     Materialize issues idempotent CREATE TABLE IF NOT EXISTS semantics and
//     returns a Binding; BindExisting skips schema creation and the caller
//     asserts the table exists.
//
//   - Binding: a handle coupling a collection to a borrowed engine
//     connection. The connection is owned by the caller; the Binding never
//     opens, pools or closes connections. Operations are synchronous
//     pass-through calls: the package performs no locking, retrying or
//     transaction management of its own and relies on the engine's
//     guarantees.
//
//   - Scalar: a closed tagged variant (text, integer, float, boolean) with an
//     enumerable coercion matrix. Scalar.Coerce is the single conversion
//     point; every typed read routes through it.
//
//   - Error: a typed failure with a Code from the closed set schema_error,
//     not_initialized, constraint_violation, not_found, type_mismatch and
//     engine_failure. Surrounding layers map these codes onto their own
//     vocabulary (an HTTP surface maps not_found to 404 and so on).
//
// Write semantics are insert-only: Set on an existing key fails with
// constraint_violation instead of overwriting, and Remove on an absent key
// succeeds with an affected count of 0.
//
// Example:
//
//	coll, err := collection.New("user_emails")
//	if err != nil { ... }
//	binding, err := coll.Materialize(ctx, store.DB())
//	if err != nil { ... }
//	if err := binding.Set(ctx, "jimmy", collection.Text("abc@abc.com")); err != nil { ... }
//	email, err := binding.GetText(ctx, "jimmy")
package collection
