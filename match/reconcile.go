package match

import (
	"log/slog"
	"strings"

	"github.com/fwojciec/fuzzypatch"
	"github.com/pmezard/go-difflib/difflib"
)

// reconcile handles hunks that were written against a slightly different
// version of the file, typically with context lines the file does not have.
//
// It keeps only the before-text lines that line up with content, and
// rebuilds the hunk as a transformation from those lines to the intended
// after-text, so that missing context becomes explicit insertions. It
// reports false when too little of the before-text is left to anchor on.
func (m *Matcher) reconcile(content string, lines []fuzzypatch.HunkLine, log *slog.Logger) ([]fuzzypatch.HunkLine, bool) {
	before, after := beforeAfter(lines)
	beforeLines := fuzzypatch.SplitLines(before)

	sm := difflib.NewMatcherWithJunk(beforeLines, fuzzypatch.SplitLines(content), false, nil)
	var kept []string
	for _, b := range sm.GetMatchingBlocks() {
		kept = append(kept, beforeLines[b.A:b.A+b.Size]...)
	}

	nearBefore := strings.Join(kept, "")
	if countNonSpace(nearBefore) < m.minAnchorChars() {
		log.Debug("reconciliation left too little anchor text")
		return nil, false
	}
	if float64(len(kept)) < float64(len(beforeLines))*m.reconcileRatio() {
		log.Debug("content holds too few of the hunk's lines", "found", len(kept), "want", len(beforeLines))
		return nil, false
	}

	afterLines := fuzzypatch.SplitLines(after)
	var out []fuzzypatch.HunkLine
	for _, op := range difflib.NewMatcherWithJunk(kept, afterLines, false, nil).GetOpCodes() {
		switch op.Tag {
		case 'e':
			out = appendLines(out, fuzzypatch.OpContext, kept[op.I1:op.I2])
		case 'd':
			out = appendLines(out, fuzzypatch.OpDelete, kept[op.I1:op.I2])
		case 'i':
			out = appendLines(out, fuzzypatch.OpInsert, afterLines[op.J1:op.J2])
		case 'r':
			out = appendLines(out, fuzzypatch.OpDelete, kept[op.I1:op.I2])
			out = appendLines(out, fuzzypatch.OpInsert, afterLines[op.J1:op.J2])
		}
	}
	log.Debug("reconciled hunk", "kept", len(kept), "of", len(beforeLines))
	return out, true
}

func (m *Matcher) reconcileRatio() float64 {
	if m.ReconcileRatio <= 0 {
		return DefaultReconcileRatio
	}
	return m.ReconcileRatio
}

func appendLines(dst []fuzzypatch.HunkLine, op fuzzypatch.Op, texts []string) []fuzzypatch.HunkLine {
	for _, t := range texts {
		dst = append(dst, fuzzypatch.HunkLine{Op: op, Text: t})
	}
	return dst
}

