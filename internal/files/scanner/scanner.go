package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/pgload/internal/files/filesystem"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Scanner expands load inputs into the ordered list of files to load.
// Scanner is safe for concurrent use as long as its filesystem provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner() *Scanner {
	return &Scanner{fsProvider: filesystem.NewOSFileSystem()}
}

// NewScannerWithFS creates a scanner with a custom filesystem provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	return &Scanner{fsProvider: fsProvider}
}

// Discover returns the files to load, in order:
//
//   - an input that is a directory contributes its files whose base name
//     matches one of patterns (case-insensitively), sorted by path;
//   - any other input is kept as given, even if it does not exist, so that
//     the loader reports it as a per-file failure.
//
// A path listed more than once is loaded once, at its first position.
// Empty patterns means pgload.DefaultFilePatterns.
func (s *Scanner) Discover(inputs []string, patterns []string, recursive bool) ([]string, error) {
	if len(patterns) == 0 {
		patterns = pgload.DefaultFilePatterns
	}
	if err := validatePatterns(patterns); err != nil {
		return nil, err
	}

	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		key := filepath.Clean(p)
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, p)
	}

	for _, input := range inputs {
		info, err := s.fsProvider.Stat(input)
		if err != nil || !info.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to access %s: %w", input, err)
			}
			add(input)
			continue
		}

		var matched []string
		err = s.fsProvider.Walk(input, recursive, func(path string, info filesystem.FileInfo) error {
			if matchesAny(info.Name(), patterns) {
				matched = append(matched, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", input, err)
		}

		sort.Strings(matched)
		for _, p := range matched {
			add(p)
		}
	}

	return files, nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid file pattern %q: %w", p, pgload.ErrInvalidConfig)
		}
	}
	return nil
}

func matchesAny(name string, patterns []string) bool {
	name = strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), name); ok {
			return true
		}
	}
	return false
}

var _ pgload.FileScanner = (*Scanner)(nil)
