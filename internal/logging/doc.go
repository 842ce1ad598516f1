// Package logging provides concrete implementations of the pgload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: prefixes each line with its level and writes to stderr
//     (or any io.Writer) under a mutex
//   - NullLogger: Discards all messages (useful for testing)
package logging
