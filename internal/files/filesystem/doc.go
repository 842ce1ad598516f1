// Package filesystem abstracts the file access pgload needs: streaming
// reads, stat, and a directory walk that can stay flat or recurse.
//
// Implementations:
//   - OSFileSystem: Production implementation using the OS filesystem
//   - MemoryFileSystem: In-memory implementation for testing
package filesystem
