package fuzzypatch

// FileAccess is the storage the applier reads and writes. Implementations
// resolve relative paths against a root directory.
type FileAccess interface {
	// Resolve returns path unchanged if absolute, otherwise joined under root.
	Resolve(path string) string

	// ReadText returns the content of a resolved path. It returns an error
	// wrapping ErrNotFound if the file does not exist.
	ReadText(path string) (string, error)

	// WriteText replaces the content of a resolved path, creating it if needed.
	WriteText(path, content string) error
}
