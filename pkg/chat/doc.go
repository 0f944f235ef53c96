// Package chat defines the Chat Completions wire types for the chatwire
// client: the request model with validated construction options, the
// polymorphic message variants, the buffered and streaming response decode
// targets, and the typed error values shared across the library.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O. All types produce JSON compatible with the OpenAI Chat
// Completions wire format.
package chat
