// Package preview renders file changes as unified diffs using
// github.com/aymanbagabas/go-udiff.
package preview

import (
	"path/filepath"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/fwojciec/fuzzypatch"
)

// Renderer renders file changes with paths shown relative to Root.
type Renderer struct {
	Root string
}

// NewRenderer creates a renderer for changes below root. A relative root is
// made absolute, matching the resolved paths of file changes.
func NewRenderer(root string) *Renderer {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	return &Renderer{Root: root}
}

// Render returns one unified diff per change, concatenated in order.
// Changes without a content difference render as nothing.
func (r *Renderer) Render(changes []fuzzypatch.FileChange) string {
	var b strings.Builder
	for _, c := range changes {
		b.WriteString(r.Unified(c))
	}
	return b.String()
}

// Unified returns the unified diff of a single change. Both sides carry the
// same label so the output can be applied again below Root. A file that did
// not exist before is labelled /dev/null on the old side.
func (r *Renderer) Unified(c fuzzypatch.FileChange) string {
	name := r.rel(c.Path)
	oldLabel := name
	if c.Old == "" {
		oldLabel = fuzzypatch.DevNull
	}
	return udiff.Unified(oldLabel, name, c.Old, c.New)
}

func (r *Renderer) rel(path string) string {
	if r.Root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(r.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
