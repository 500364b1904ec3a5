// Package memfs provides in-memory file access for tests and dry runs.
package memfs

import (
	"maps"
	"path/filepath"
	"sync"

	"github.com/fwojciec/fuzzypatch"
)

// Compile-time interface verification.
var _ fuzzypatch.FileAccess = (*FileSystem)(nil)

// FileSystem keeps file content in a map keyed by resolved path. It is safe
// for concurrent use.
type FileSystem struct {
	root string

	mu    sync.RWMutex
	files map[string]string
}

// New returns an empty FileSystem rooted at root.
func New(root string) *FileSystem {
	return &FileSystem{root: filepath.Clean(root), files: make(map[string]string)}
}

// Resolve joins relative paths to the root.
func (f *FileSystem) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(f.root, path)
}

// ReadText returns the stored content, or fuzzypatch.ErrNotFound.
func (f *FileSystem) ReadText(path string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	content, ok := f.files[path]
	if !ok {
		return "", fuzzypatch.ErrNotFound
	}
	return content, nil
}

// WriteText stores content under path.
func (f *FileSystem) WriteText(path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return nil
}

// Put stores content under the resolved form of path.
func (f *FileSystem) Put(path, content string) {
	_ = f.WriteText(f.Resolve(path), content)
}

// Get returns the content stored under the resolved form of path.
func (f *FileSystem) Get(path string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	content, ok := f.files[f.Resolve(path)]
	return content, ok
}

// Files returns a snapshot of every stored file.
func (f *FileSystem) Files() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return maps.Clone(f.files)
}
