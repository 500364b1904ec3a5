package fuzzypatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Applier parses diff text and applies each hunk to the file it targets.
//
// Hunks are applied in document order and each hunk sees the output of the
// hunks before it for the same file. A hunk that cannot be placed leaves its
// file untouched; only storage failures abort the call, and writes made
// before the failure are kept.
type Applier struct {
	Parser    Parser
	Matcher   Matcher
	Files     FileAccess
	Validator HunkValidator // Optional header diagnostics
	Logger    *slog.Logger  // Optional; nil discards

	// DryRun computes every change without writing anything.
	DryRun bool

	// Concurrency above 1 applies hunks for different files in parallel,
	// at most Concurrency files at a time. Hunks for one file always run in
	// document order.
	Concurrency int
}

// Result reports what an Apply call did.
type Result struct {
	Applied int           // Hunks that changed file content
	Hunks   []HunkOutcome // One per parsed hunk, in document order
	Changes []FileChange  // One per file whose content changed
}

// Count returns the number of hunks with the given status.
func (r *Result) Count(s Status) int {
	var n int
	for _, h := range r.Hunks {
		if h.Status == s {
			n++
		}
	}
	return n
}

// Summary returns a one-line description such as "applied 2 of 3 hunks".
func (r *Result) Summary() string {
	noun := "hunks"
	if len(r.Hunks) == 1 {
		noun = "hunk"
	}
	return fmt.Sprintf("applied %d of %d %s", r.Applied, len(r.Hunks), noun)
}

// HunkOutcome is what happened to a single hunk.
type HunkOutcome struct {
	Index    int
	Path     string // As written in the diff
	Resolved string // Empty for skipped hunks
	Status   Status
	Strategy Strategy
}

// FileChange holds the content of a file before the first and after the last
// applied hunk, both with "\n" line endings.
type FileChange struct {
	Path string
	Old  string
	New  string
}

// Status is the outcome of applying one hunk.
type Status int

// Hunk statuses.
const (
	StatusSkipped    Status = iota // No usable target path
	StatusNotApplied               // Anchor missing or ambiguous
	StatusUnchanged                // Matched, but content was already as intended
	StatusApplied                  // Matched and content changed
)

func (s Status) String() string {
	switch s {
	case StatusNotApplied:
		return "not-applied"
	case StatusUnchanged:
		return "unchanged"
	case StatusApplied:
		return "applied"
	default:
		return "skipped"
	}
}

// Apply parses diffText and applies the resulting document.
func (a *Applier) Apply(ctx context.Context, diffText string) (*Result, error) {
	return a.ApplyDocument(ctx, a.Parser.Parse(diffText))
}

// ApplyDocument applies every hunk of doc. The returned result is valid even
// when an error is returned and describes the hunks processed so far.
func (a *Applier) ApplyDocument(ctx context.Context, doc Document) (*Result, error) {
	res := &Result{Hunks: make([]HunkOutcome, len(doc.Hunks))}

	var order []*fileState
	states := make(map[string]*fileState)
	for i, h := range doc.Hunks {
		res.Hunks[i] = HunkOutcome{Index: i, Path: h.Path, Status: StatusSkipped}
		if h.Path == "" || h.Path == DevNull {
			continue
		}
		resolved := a.Files.Resolve(h.Path)
		res.Hunks[i].Resolved = resolved
		st, ok := states[resolved]
		if !ok {
			st = &fileState{path: resolved}
			states[resolved] = st
			order = append(order, st)
		}
		st.hunks = append(st.hunks, i)
	}

	var err error
	if a.Concurrency > 1 && len(order) > 1 {
		err = a.applyConcurrently(ctx, doc, order, res)
	} else {
		err = a.applySequentially(ctx, doc, states, res)
	}

	for _, st := range order {
		if st.loaded && st.current != st.original {
			res.Changes = append(res.Changes, FileChange{Path: st.path, Old: st.original, New: st.current})
		}
	}
	res.Applied = res.Count(StatusApplied)
	return res, err
}

func (a *Applier) applySequentially(ctx context.Context, doc Document, states map[string]*fileState, res *Result) error {
	for i, h := range doc.Hunks {
		out := &res.Hunks[i]
		if out.Resolved == "" {
			continue
		}
		if err := a.applyHunk(ctx, states[out.Resolved], h, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) applyConcurrently(ctx context.Context, doc Document, order []*fileState, res *Result) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Concurrency)
	for _, st := range order {
		g.Go(func() error {
			for _, i := range st.hunks {
				if err := a.applyHunk(gctx, st, doc.Hunks[i], &res.Hunks[i]); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (a *Applier) applyHunk(ctx context.Context, st *fileState, h FileHunk, out *HunkOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := st.load(a.Files); err != nil {
		return err
	}

	log := a.logger().With("path", h.Path, "hunk", out.Index)
	if a.Validator != nil {
		if err := a.Validator.Validate(h); err != nil {
			log.Debug("hunk header disagrees with body", "header", h.Header.Raw, "error", err)
		}
	}

	m := a.Matcher.Apply(st.current, h)
	out.Strategy = m.Strategy
	switch {
	case !m.Applied:
		out.Status = StatusNotApplied
		log.Info("hunk not applied")
	case m.Content == st.current:
		out.Status = StatusUnchanged
		log.Debug("hunk already applied", "strategy", m.Strategy)
	default:
		if !a.DryRun {
			if err := a.Files.WriteText(st.path, st.encode(m.Content)); err != nil {
				return &Error{Op: "write", Path: st.path, Err: err}
			}
		}
		st.current = m.Content
		out.Status = StatusApplied
		log.Info("hunk applied", "strategy", m.Strategy, "dry_run", a.DryRun)
	}
	return nil
}

func (a *Applier) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// fileState tracks one file across the hunks of a single Apply call, so later
// hunks match against the output of earlier ones even in a dry run.
type fileState struct {
	path     string
	hunks    []int
	loaded   bool
	crlf     bool
	original string
	current  string
}

func (st *fileState) load(files FileAccess) error {
	if st.loaded {
		return nil
	}
	content, err := files.ReadText(st.path)
	switch {
	case errors.Is(err, ErrNotFound):
		content = ""
	case err != nil:
		return &Error{Op: "read", Path: st.path, Err: err}
	}
	st.crlf = UsesCRLF(content)
	st.original = NormalizeLineEndings(content)
	st.current = st.original
	st.loaded = true
	return nil
}

// encode restores CRLF line endings when the file used them throughout.
// Files with mixed or bare "\r" endings are written with "\n".
func (st *fileState) encode(content string) string {
	if !st.crlf {
		return content
	}
	return strings.ReplaceAll(content, "\n", "\r\n")
}
