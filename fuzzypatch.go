// Package fuzzypatch provides domain types for applying loosely formatted
// unified diffs to text files.
package fuzzypatch

import "strings"

// DevNull is the path a diff uses for "no file": a missing source when a file
// is created, or a missing target.
const DevNull = "/dev/null"

// Document is a parsed diff: every hunk in the order it appears in the source
// text. Hunks for the same file must be applied in this order.
type Document struct {
	Hunks []FileHunk
}

// Paths returns the distinct hunk paths in first-seen order.
func (d Document) Paths() []string {
	seen := make(map[string]bool, len(d.Hunks))
	var paths []string
	for _, h := range d.Hunks {
		if seen[h.Path] {
			continue
		}
		seen[h.Path] = true
		paths = append(paths, h.Path)
	}
	return paths
}

// FileHunk is one hunk together with the path it targets.
type FileHunk struct {
	Path   string     // From the most recent "---" or "+++" line
	Header HunkHeader // The "@@" line; never used for placement
	Lines  []HunkLine
}

// BeforeAfter returns the text the hunk expects to find (context and deleted
// lines) and the text that replaces it (context and inserted lines).
func (h FileHunk) BeforeAfter() (before, after string) {
	var b, a strings.Builder
	for _, l := range h.Lines {
		switch l.Op {
		case OpContext:
			b.WriteString(l.Text)
			a.WriteString(l.Text)
		case OpDelete:
			b.WriteString(l.Text)
		case OpInsert:
			a.WriteString(l.Text)
		}
	}
	return b.String(), a.String()
}

// HasChanges reports whether the hunk contains any deleted or inserted line.
func (h FileHunk) HasChanges() bool {
	for _, l := range h.Lines {
		if l.Op != OpContext {
			return true
		}
	}
	return false
}

// HunkHeader is the parsed "@@ -a,b +c,d @@ section" line of a hunk.
type HunkHeader struct {
	Raw      string // The header line without its line terminator
	OldStart int    // From @@ -X,...
	OldCount int    // From @@ -X,Y ...
	NewStart int    // From @@ ...,+X
	NewCount int    // From @@ ...,+X,Y
	Section  string // Optional text after the closing @@
	Valid    bool   // False when the ranges could not be parsed
}

// HunkLine is a single body line of a hunk.
type HunkLine struct {
	Op   Op
	Text string // Without the marker, with the line terminator
}

// Op is the operation a hunk line performs.
type Op int

// Hunk line operations.
const (
	OpContext Op = iota
	OpDelete
	OpInsert
)

// String returns the diff marker for the operation.
func (o Op) String() string {
	switch o {
	case OpDelete:
		return "-"
	case OpInsert:
		return "+"
	default:
		return " "
	}
}

// NormalizeLineEndings converts "\r\n" and bare "\r" line endings to "\n".
func NormalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// UsesCRLF reports whether every line ending in s is "\r\n".
func UsesCRLF(s string) bool {
	n := strings.Count(s, "\r\n")
	return n > 0 && n == strings.Count(s, "\n") && n == strings.Count(s, "\r")
}

// SplitLines splits s after each "\n", keeping the terminators. A final line
// without a terminator is kept as is.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
