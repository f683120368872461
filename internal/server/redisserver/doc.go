// Package redisserver serves the key-value store over a Redis compatible
// wire protocol.
//
// Each accepted connection is handled by its own goroutine that reads one
// frame, dispatches it to the CommandHandler and writes the reply before
// reading the next. Only GET and SET are supported; anything else is answered
// with an error reply and the connection stays open. Malformed frames end the
// connection after a best-effort error reply.
package redisserver
