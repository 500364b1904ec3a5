package fuzzypatch

// Parser parses diff text into a Document.
type Parser interface {
	// Parse never fails: lines it does not understand are skipped.
	Parse(text string) Document
}
