// Package common provides the shared pieces of the REST surface: server and
// client configuration, the endpoint grammar, the wire DTOs exchanged over
// HTTP, and logger construction.
//
// Both rest/server and rest/client depend on this package so the two sides
// always agree on the endpoint syntax (tcp://host:port or unix:///path), the
// body shapes, and the error payload. Values travel as strings tagged with
// their scalar kind; conversion happens through the collection package's
// coercion point on both ends, which keeps every body codec lossless.
package common
