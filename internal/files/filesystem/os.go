package filesystem

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSFileSystem implements FileSystemProvider for the OS filesystem
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem provider
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return f, nil
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}

func (p *OSFileSystem) Walk(root string, recursive bool, fn WalkFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to get file info for %s: %w", path, err)
		}
		return callSafely(path, info, fn)
	})
}

// callSafely converts a panic in fn into an error so a bad callback cannot
// crash the whole walk.
func callSafely(path string, info FileInfo, fn WalkFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("walk callback panicked at %s: %v", path, r)
		}
	}()
	return fn(path, info)
}
