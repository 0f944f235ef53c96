// Package client implements the HTTP transport for OpenAI-compatible Chat
// Completions backends: buffered completion via Complete and incremental
// SSE streaming via Stream. It handles request serialization, response
// parsing, SSE frame reassembly, and error mapping to the typed values in
// package chat.
//
// A Client holds only immutable state after construction and is safe for
// concurrent use by multiple goroutines.
package client
