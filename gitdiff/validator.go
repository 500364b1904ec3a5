// Package gitdiff checks hunk headers against hunk bodies using
// github.com/bluekeyes/go-gitdiff.
package gitdiff

import (
	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/fuzzypatch"
)

// Compile-time interface verification.
var _ fuzzypatch.HunkValidator = (*Validator)(nil)

// Validator reports hunks whose "@@" line counts disagree with their body.
// Hunks with a bare or unparsable header are accepted as is.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns an error describing the first inconsistency in hunk.
func (v *Validator) Validate(hunk fuzzypatch.FileHunk) error {
	if !hunk.Header.Valid {
		return nil
	}
	frag := Fragment(hunk)
	return frag.Validate()
}

// Fragment converts hunk into a go-gitdiff text fragment. Line counts come
// from the header; the context and change counts are taken from the body,
// so validation only flags a header that disagrees with the body.
func Fragment(hunk fuzzypatch.FileHunk) *gitdiff.TextFragment {
	frag := &gitdiff.TextFragment{
		Comment:     hunk.Header.Section,
		OldPosition: int64(hunk.Header.OldStart),
		OldLines:    int64(hunk.Header.OldCount),
		NewPosition: int64(hunk.Header.NewStart),
		NewLines:    int64(hunk.Header.NewCount),
		Lines:       make([]gitdiff.Line, 0, len(hunk.Lines)),
	}

	changed := false
	for _, l := range hunk.Lines {
		line := gitdiff.Line{Line: l.Text}
		switch l.Op {
		case fuzzypatch.OpDelete:
			line.Op = gitdiff.OpDelete
			frag.LinesDeleted++
			frag.TrailingContext = 0
			changed = true
		case fuzzypatch.OpInsert:
			line.Op = gitdiff.OpAdd
			frag.LinesAdded++
			frag.TrailingContext = 0
			changed = true
		default:
			line.Op = gitdiff.OpContext
			if changed {
				frag.TrailingContext++
			} else {
				frag.LeadingContext++
			}
		}
		frag.Lines = append(frag.Lines, line)
	}
	return frag
}
