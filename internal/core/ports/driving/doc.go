// Package driving defines interfaces that external actors (CLI, MCP clients)
// use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// Every operation returns a well-formed response envelope. Partial failures
// (one channel down, one chunk not embedded, one document failing in a bulk
// run) are reported through the envelope's flags and counters. The error
// return is reserved for requests that cannot be processed at all.
//
// Implementations of these interfaces live in internal/core/services.
package driving
