package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryFile struct {
	content []byte
	info    *memoryFileInfo
	openErr error
}

// MemoryFileSystem implements FileSystemProvider for tests. Paths are
// slash-separated; directories exist implicitly when a file lives under them.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
}

// NewMemoryFileSystem creates an empty in-memory filesystem.
func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{files: make(map[string]*memoryFile)}
}

func clean(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// AddFile adds a file with string content.
func (m *MemoryFileSystem) AddFile(filePath, content string) {
	m.AddFileBytes(filePath, []byte(content))
}

// AddFileBytes adds a file with binary content, such as a compressed input.
func (m *MemoryFileSystem) AddFileBytes(filePath string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := clean(filePath)
	m.files[p] = &memoryFile{
		content: content,
		info: &memoryFileInfo{
			name:    path.Base(p),
			size:    int64(len(content)),
			mode:    0644,
			modTime: time.Now(),
		},
	}
}

// AddUnreadableFile adds a file that is listed and stat-able but fails to
// open with err, the way a file without read permission behaves.
func (m *MemoryFileSystem) AddUnreadableFile(filePath string, err error) {
	m.AddFile(filePath, "")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[clean(filePath)].openErr = err
}

func (m *MemoryFileSystem) Open(filePath string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := clean(filePath)
	f, ok := m.files[p]
	if !ok {
		if m.isDirLocked(p) {
			return nil, fmt.Errorf("%s is a directory", filePath)
		}
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: fs.ErrNotExist}
	}
	if f.openErr != nil {
		return nil, &fs.PathError{Op: "open", Path: filePath, Err: f.openErr}
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func (m *MemoryFileSystem) Stat(filePath string) (FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p := clean(filePath)
	if f, ok := m.files[p]; ok {
		return f.info, nil
	}
	if m.isDirLocked(p) {
		return &memoryFileInfo{name: path.Base(p), mode: 0755 | fs.ModeDir, modTime: time.Now()}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: filePath, Err: fs.ErrNotExist}
}

func (m *MemoryFileSystem) Walk(root string, recursive bool, fn WalkFunc) error {
	m.mu.RLock()
	r := clean(root)
	if !m.isDirLocked(r) {
		m.mu.RUnlock()
		return &fs.PathError{Op: "walk", Path: root, Err: fs.ErrNotExist}
	}
	prefix := r + "/"
	switch r {
	case "/":
		prefix = "/"
	case ".":
		prefix = ""
	}

	type entry struct {
		path string
		info FileInfo
	}
	var entries []entry
	for p, f := range m.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		if !recursive && strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, entry{p, f.info})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })
	for _, e := range entries {
		if err := callSafely(e.path, e.info, fn); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryFileSystem) isDirLocked(p string) bool {
	if p == "." || p == "/" {
		return true
	}
	prefix := p + "/"
	for filePath := range m.files {
		if strings.HasPrefix(filePath, prefix) {
			return true
		}
	}
	return false
}
