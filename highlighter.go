package fuzzypatch

import "io"

// Highlighter writes diff text to a terminal with syntax colors.
type Highlighter interface {
	// Highlight writes diffText to w. Implementations fall back to plain
	// text when highlighting is not possible.
	Highlight(w io.Writer, diffText string) error
}
