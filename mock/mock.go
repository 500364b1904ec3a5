// Package mock provides function-field implementations of the fuzzypatch
// interfaces for tests.
package mock

import (
	"io"

	"github.com/fwojciec/fuzzypatch"
)

var (
	_ fuzzypatch.Parser        = (*Parser)(nil)
	_ fuzzypatch.Matcher       = (*Matcher)(nil)
	_ fuzzypatch.FileAccess    = (*FileAccess)(nil)
	_ fuzzypatch.HunkValidator = (*HunkValidator)(nil)
	_ fuzzypatch.Highlighter   = (*Highlighter)(nil)
)

// Parser implements fuzzypatch.Parser.
type Parser struct {
	ParseFn func(text string) fuzzypatch.Document
}

func (p *Parser) Parse(text string) fuzzypatch.Document {
	return p.ParseFn(text)
}

// Matcher implements fuzzypatch.Matcher.
type Matcher struct {
	ApplyFn func(content string, hunk fuzzypatch.FileHunk) fuzzypatch.MatchResult
}

func (m *Matcher) Apply(content string, hunk fuzzypatch.FileHunk) fuzzypatch.MatchResult {
	return m.ApplyFn(content, hunk)
}

// FileAccess implements fuzzypatch.FileAccess. A nil ResolveFn returns the
// path unchanged.
type FileAccess struct {
	ResolveFn   func(path string) string
	ReadTextFn  func(path string) (string, error)
	WriteTextFn func(path, content string) error
}

func (f *FileAccess) Resolve(path string) string {
	if f.ResolveFn == nil {
		return path
	}
	return f.ResolveFn(path)
}

func (f *FileAccess) ReadText(path string) (string, error) {
	return f.ReadTextFn(path)
}

func (f *FileAccess) WriteText(path, content string) error {
	return f.WriteTextFn(path, content)
}

// HunkValidator implements fuzzypatch.HunkValidator.
type HunkValidator struct {
	ValidateFn func(hunk fuzzypatch.FileHunk) error
}

func (v *HunkValidator) Validate(hunk fuzzypatch.FileHunk) error {
	return v.ValidateFn(hunk)
}

// Highlighter implements fuzzypatch.Highlighter.
type Highlighter struct {
	HighlightFn func(w io.Writer, diffText string) error
}

func (h *Highlighter) Highlight(w io.Writer, diffText string) error {
	return h.HighlightFn(w, diffText)
}
