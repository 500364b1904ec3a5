// Package unidiff parses loosely formatted unified diffs, such as those
// written by language models, into fuzzypatch documents.
package unidiff

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fwojciec/fuzzypatch"
)

// Compile-time interface verification.
var _ fuzzypatch.Parser = (*Parser)(nil)

// Parser is a lenient unified diff parser. It recognises "---"/"+++" path
// lines, "@@" hunk headers and ' ', '-', '+' body lines, and ignores
// everything else, including "diff --git" and "index" lines.
type Parser struct{}

// NewParser creates a new lenient parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse splits text into hunks. Line endings are normalised to "\n" first.
func (p *Parser) Parse(text string) fuzzypatch.Document {
	var (
		doc  fuzzypatch.Document
		path string
		open *fuzzypatch.FileHunk
	)
	commit := func() {
		if open != nil {
			doc.Hunks = append(doc.Hunks, *open)
			open = nil
		}
	}

	for _, line := range fuzzypatch.SplitLines(fuzzypatch.NormalizeLineEndings(text)) {
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			// The open hunk keeps the path it was opened with.
			path = strings.TrimSpace(line[4:])
		case strings.HasPrefix(line, "@@"):
			commit()
			open = &fuzzypatch.FileHunk{Path: path, Header: ParseHeader(line)}
		case open != nil && isBodyLine(line):
			open.Lines = append(open.Lines, parseBodyLine(line))
		}
	}
	commit()
	return doc
}

func isBodyLine(line string) bool {
	switch line[0] {
	case ' ', '-', '+':
		return true
	}
	return false
}

// parseBodyLine converts a raw body line. Lines shorter than two characters
// carry no text and are treated as empty context.
func parseBodyLine(line string) fuzzypatch.HunkLine {
	if len(line) < 2 {
		return fuzzypatch.HunkLine{Op: fuzzypatch.OpContext}
	}
	l := fuzzypatch.HunkLine{Text: line[1:]}
	switch line[0] {
	case '-':
		l.Op = fuzzypatch.OpDelete
	case '+':
		l.Op = fuzzypatch.OpInsert
	default:
		l.Op = fuzzypatch.OpContext
	}
	return l
}

var headerRE = regexp.MustCompile(`^@@\s+-(\d+)(?:,(\d+))?\s+\+(\d+)(?:,(\d+))?\s+@@ ?(.*)$`)

// ParseHeader parses a "@@ -a,b +c,d @@ section" line. Missing counts
// default to 1. Headers without usable ranges, such as a bare "@@", are
// returned with Valid unset.
func ParseHeader(line string) fuzzypatch.HunkHeader {
	raw := strings.TrimRight(line, "\n")
	h := fuzzypatch.HunkHeader{Raw: raw}
	m := headerRE.FindStringSubmatch(raw)
	if m == nil {
		return h
	}
	h.OldStart = atoi(m[1], 0)
	h.OldCount = atoi(m[2], 1)
	h.NewStart = atoi(m[3], 0)
	h.NewCount = atoi(m[4], 1)
	h.Section = strings.TrimSpace(m[5])
	h.Valid = true
	return h
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

