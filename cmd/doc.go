// Package cmd implements the command-line interface for the adrodb typed
// key-value store. It provides a hierarchical command structure with operations
// for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for collection operations (create, set, get, has, del, perf)
//   - serve: Commands for starting and configuring the adrodb server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See adrodb -help for a list of all commands.
package cmd
