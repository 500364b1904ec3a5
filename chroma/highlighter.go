// Package chroma provides diff highlighting using the chroma library.
package chroma

import (
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fwojciec/fuzzypatch"
	"github.com/muesli/termenv"
)

// Compile-time interface verification.
var _ fuzzypatch.Highlighter = (*Highlighter)(nil)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Highlighter colors unified diffs for a terminal.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// NewHighlighter creates a highlighter writing escape sequences for the given
// color profile. Unknown style names fall back to chroma's default style.
func NewHighlighter(profile termenv.Profile, style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		// Coalesce for fewer escape sequences on runs of the same token type
		lexer:     chroma.Coalesce(lexers.Get("diff")),
		formatter: formatters.Get(FormatterName(profile)),
		style:     styles.Get(style),
	}
}

// Highlight writes diffText to w. If the text cannot be tokenised it is
// written unchanged.
func (h *Highlighter) Highlight(w io.Writer, diffText string) error {
	if diffText == "" {
		return nil
	}
	iterator, err := h.lexer.Tokenise(nil, diffText)
	if err != nil {
		_, err = io.WriteString(w, diffText)
		return err
	}
	return h.formatter.Format(w, h.style, iterator)
}

// FormatterName returns the chroma formatter matching a terminal color
// profile. Profiles without color map to the plain "noop" formatter.
func FormatterName(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return "noop"
	}
}
