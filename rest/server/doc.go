// Package server exposes collections over a REST interface.
//
// The server is thin glue around the collection package: every route obtains
// a Binding, performs exactly one operation, and translates the typed result
// into HTTP vocabulary. No storage semantics live here.
//
// Routes (bodies negotiated via Content-Type/Accept across the codec
// package's formats):
//
//	POST   /api/v1/collections                           materialize a collection
//	PUT    /api/v1/collections/{collection}/items/{key}  insert a value
//	GET    /api/v1/collections/{collection}/items/{key}  read a value (optional ?type= coercion)
//	HEAD   /api/v1/collections/{collection}/items/{key}  presence probe
//	DELETE /api/v1/collections/{collection}/items/{key}  remove a value
//	GET    /health                                       liveness probe
//	GET    /metrics                                      Prometheus metrics
//
// Failure classification maps onto status codes (the X-Adrodb-Error-Code
// header carries the wire code): schema_error 400, not_initialized and
// not_found 404, constraint_violation 409, type_mismatch 422, engine_failure
// 500. Malformed requests answer 400 with code "invalid".
//
// The listen endpoint uses the shared grammar tcp://host:port or
// unix:///path; stale unix sockets are unlinked before binding. Serve blocks
// until the context is cancelled and then shuts down gracefully.
package server
