// Package codec provides request/response body encoding for the REST
// surface. It defines a common interface and multiple implementations so
// client and server can negotiate the body format per request.
//
// The package focuses on:
//   - A consistent interface for different encoding formats
//   - Lookup by codec name (CLI flags) and by MIME content type (HTTP
//     negotiation)
//   - Keeping the wire DTOs codec-agnostic: values always travel as tagged
//     strings, so every format round-trips them losslessly
//
// Key Components:
//
//   - ICodec: core interface all codec implementations satisfy.
//
//   - jsonCodecImpl: encoding/json implementation and the default. Human
//     readable, interoperable with any HTTP client.
//
//   - msgpackCodecImpl: MessagePack implementation, compact and fast while
//     staying schema-free.
//
//   - gobCodecImpl: Go-native gob encoding for Go-to-Go deployments.
//
// Codecs are stateless and safe for concurrent use.
package codec
