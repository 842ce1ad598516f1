package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// WalkFunc is called for every regular file found by Walk, in lexical order
// within each directory. Returning an error stops the walk.
type WalkFunc func(path string, info FileInfo) error

// FileSystemProvider abstracts the filesystem so discovery and parsing can
// be tested without touching disk.
type FileSystemProvider interface {
	// Open opens a file for streaming reads. The caller closes it.
	Open(path string) (io.ReadCloser, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// Walk visits the regular files under root. Subdirectories are only
	// entered when recursive is true.
	Walk(root string, recursive bool, fn WalkFunc) error
}
