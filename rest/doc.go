// Package rest provides the HTTP layer of adrodb. It exposes typed
// collections over a REST interface, enabling access to a storage engine
// across process and network boundaries.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures shared by server and client, including
//     the wire DTOs, configuration structures, endpoint parsing and logging.
//
//   - codec: Body encoding with multiple format options (JSON, MsgPack, GOB)
//     negotiated per request via the Content-Type and Accept headers.
//
//   - server: The HTTP server. Routes every request to exactly one
//     collection operation and maps the failure classification onto status
//     codes.
//
//   - client: The Go client. Hands out RemoteCollection handles that mirror
//     the collection.Binding surface, so local and remote access read the
//     same.
package rest
