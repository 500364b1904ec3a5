// Package match places diff hunks in file content without trusting line
// numbers.
//
// A hunk is placed by a cascade of increasingly tolerant strategies:
//
//  1. Direct: the hunk's before-text occurs exactly once in the content.
//  2. Narrowed: each change run is placed separately, with as much of its
//     surrounding context as still yields a unique match.
//  3. Reconciled: context lines that do not exist in the content are made
//     explicit insertions, and the first two strategies are retried.
//
// A hunk whose before-text is gone but whose after-text is present is
// reported as already applied: pure insertions before narrowing, hunks with
// deleted lines only once narrowing has failed.
//
// Every strategy refuses ambiguous matches. Not applying a hunk is always
// preferred to guessing where it goes.
package match

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/fwojciec/fuzzypatch"
)

// Compile-time interface verification.
var _ fuzzypatch.Matcher = (*Matcher)(nil)

// Default tuning values.
const (
	DefaultMinAnchorChars = 10
	DefaultReconcileRatio = 0.66
)

// Matcher implements the match cascade.
type Matcher struct {
	// MinAnchorChars is the number of non-whitespace characters below which
	// a repeated anchor is reported as too short rather than just ambiguous.
	MinAnchorChars int

	// ReconcileRatio is the share of the before-text lines that must exist
	// in the content for reconciliation to be attempted.
	ReconcileRatio float64

	Logger *slog.Logger
}

// NewMatcher creates a matcher with default tuning.
func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{
		MinAnchorChars: DefaultMinAnchorChars,
		ReconcileRatio: DefaultReconcileRatio,
		Logger:         logger,
	}
}

// Apply places hunk in content. It never mutates hunk.
func (m *Matcher) Apply(content string, hunk fuzzypatch.FileHunk) fuzzypatch.MatchResult {
	log := m.logger().With("path", hunk.Path)

	before, after := hunk.BeforeAfter()
	if before == "" {
		// Nothing to anchor on: only a new, empty file can take it.
		if content != "" {
			log.Debug("pure insertion into non-empty content")
			return fuzzypatch.NotApplied
		}
		return fuzzypatch.MatchResult{Applied: true, Content: after, Strategy: fuzzypatch.StrategyNewFile}
	}

	if out, ok := m.replaceUnique(content, hunk.Lines, log); ok {
		return fuzzypatch.MatchResult{Applied: true, Content: out, Strategy: fuzzypatch.StrategyDirect}
	}

	// A pure insertion whose after-text is already there would only be
	// duplicated by narrowing.
	deletes := hasDeletes(hunk.Lines)
	if !deletes && alreadyApplied(content, before, after) {
		log.Debug("hunk already applied")
		return fuzzypatch.MatchResult{Applied: true, Content: content, Strategy: fuzzypatch.StrategyAlreadyApplied}
	}

	if out, ok := m.narrow(content, hunk.Lines, log); ok {
		return fuzzypatch.MatchResult{Applied: true, Content: out, Strategy: fuzzypatch.StrategyNarrowed}
	}

	// Deleted lines that could still be placed were removed above. Past this
	// point reconciliation would turn the missing lines into insertions.
	if deletes && alreadyApplied(content, before, after) {
		log.Debug("hunk already applied")
		return fuzzypatch.MatchResult{Applied: true, Content: content, Strategy: fuzzypatch.StrategyAlreadyApplied}
	}

	lines, ok := m.reconcile(content, hunk.Lines, log)
	if !ok {
		return fuzzypatch.NotApplied
	}
	if out, ok := m.replaceUnique(content, lines, log); ok {
		return fuzzypatch.MatchResult{Applied: true, Content: out, Strategy: fuzzypatch.StrategyReconciled}
	}
	if out, ok := m.narrow(content, lines, log); ok {
		return fuzzypatch.MatchResult{Applied: true, Content: out, Strategy: fuzzypatch.StrategyReconciled}
	}
	log.Debug("reconciled hunk did not match")
	return fuzzypatch.NotApplied
}

// replaceUnique replaces the before-text of lines with its after-text if it
// occurs exactly once in content.
func (m *Matcher) replaceUnique(content string, lines []fuzzypatch.HunkLine, log *slog.Logger) (string, bool) {
	before, after := beforeAfter(lines)
	if before == "" {
		return "", false
	}
	idx := strings.Index(content, before)
	if idx < 0 {
		return "", false
	}
	if strings.Contains(content[idx+1:], before) {
		if countNonSpace(before) < m.minAnchorChars() {
			log.Debug("anchor too short to disambiguate", "anchor", before)
		} else {
			log.Debug("anchor is ambiguous", "anchor", before)
		}
		return "", false
	}
	return content[:idx] + after + content[idx+len(before):], true
}

// narrow places each change run of lines separately. Either every run is
// placed or content is returned unchanged with ok unset.
func (m *Matcher) narrow(content string, lines []fuzzypatch.HunkLine, log *slog.Logger) (string, bool) {
	runs := splitRuns(lines)
	if len(runs) == 1 {
		// Context only: nothing to place without a full match.
		return "", false
	}
	// runs alternates context, change, context, ..., context.
	for i := 1; i < len(runs); i += 2 {
		out, ok := m.placeChange(content, runs[i-1], runs[i], runs[i+1], log)
		if !ok {
			log.Debug("change run could not be placed", "run", i/2)
			return "", false
		}
		content = out
	}
	return content, true
}

// placeChange tries change with a shrinking window of surrounding context:
// the longer side loses a line first, and on a tie the following side.
func (m *Matcher) placeChange(content string, prec, change, foll []fuzzypatch.HunkLine, log *slog.Logger) (string, bool) {
	np, nf := len(prec), len(foll)
	for {
		window := make([]fuzzypatch.HunkLine, 0, np+len(change)+nf)
		window = append(window, prec[len(prec)-np:]...)
		window = append(window, change...)
		window = append(window, foll[:nf]...)
		if out, ok := m.replaceUnique(content, window, log); ok {
			return out, true
		}
		switch {
		case np == 0 && nf == 0:
			return "", false
		case np > nf:
			np--
		default:
			nf--
		}
	}
}

func (m *Matcher) minAnchorChars() int {
	if m.MinAnchorChars <= 0 {
		return DefaultMinAnchorChars
	}
	return m.MinAnchorChars
}

func (m *Matcher) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

// splitRuns partitions lines into maximal runs of pure context and runs that
// contain changes. The result always starts and ends with a (possibly empty)
// context run, so change runs sit at the odd indexes.
func splitRuns(lines []fuzzypatch.HunkLine) [][]fuzzypatch.HunkLine {
	runs := [][]fuzzypatch.HunkLine{nil}
	inChange := false
	for _, l := range lines {
		isChange := l.Op != fuzzypatch.OpContext
		if isChange != inChange {
			runs = append(runs, nil)
			inChange = isChange
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], l)
	}
	if inChange {
		runs = append(runs, nil)
	}
	return runs
}

// alreadyApplied reports whether the before-text is gone and the after-text
// is present.
func alreadyApplied(content, before, after string) bool {
	return after != "" && !strings.Contains(content, before) && strings.Contains(content, after)
}

func hasDeletes(lines []fuzzypatch.HunkLine) bool {
	for _, l := range lines {
		if l.Op == fuzzypatch.OpDelete {
			return true
		}
	}
	return false
}

func beforeAfter(lines []fuzzypatch.HunkLine) (string, string) {
	return fuzzypatch.FileHunk{Lines: lines}.BeforeAfter()
}

func countNonSpace(s string) int {
	var n int
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
