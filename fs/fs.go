// Package fs provides file access backed by the operating system.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/fwojciec/fuzzypatch"
)

// Compile-time interface verification.
var _ fuzzypatch.FileAccess = (*FileSystem)(nil)

// FileSystem reads and writes files on disk. Relative diff paths are
// resolved against Root.
type FileSystem struct {
	Root string
}

// NewFileSystem returns a FileSystem rooted at root. An empty root means the
// current working directory.
func NewFileSystem(root string) *FileSystem {
	return &FileSystem{Root: root}
}

// Resolve returns the absolute, cleaned location of path.
func (f *FileSystem) Resolve(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Root, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// ReadText returns the content of path. A missing file is reported as
// fuzzypatch.ErrNotFound.
func (f *FileSystem) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, iofs.ErrNotExist) {
		return "", fuzzypatch.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText replaces the content of path, creating missing parent
// directories. The file's permissions are kept when it already exists.
func (f *FileSystem) WriteText(path, content string) error {
	perm := iofs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DefaultConfigPath returns the default location of the configuration file.
// Uses XDG_CONFIG_HOME if set, otherwise falls back to
// ~/.config/fuzzypatch/config.toml.
func DefaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fuzzypatch", "config.toml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fuzzypatch", "config.toml")
}
