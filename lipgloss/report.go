// Package lipgloss renders apply results for terminals using lipgloss.
package lipgloss

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/fuzzypatch"
	"github.com/muesli/termenv"
)

// Reporter writes a per-hunk table followed by a summary line.
type Reporter struct {
	renderer *lipgloss.Renderer

	applied    lipgloss.Style
	notApplied lipgloss.Style
	muted      lipgloss.Style
	summary    lipgloss.Style
}

// NewReporter creates a reporter for w. Colors follow profile; use
// termenv.Ascii for plain output.
func NewReporter(w io.Writer, profile termenv.Profile) *Reporter {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	r.SetColorProfile(profile)
	return &Reporter{
		renderer:   r,
		applied:    r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		notApplied: r.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		muted:      r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		summary:    r.NewStyle().Bold(true),
	}
}

// Report writes res to w.
func (r *Reporter) Report(w io.Writer, res *fuzzypatch.Result) error {
	statusWidth, pathWidth := 0, 0
	for _, h := range res.Hunks {
		statusWidth = max(statusWidth, len(h.Status.String()))
		pathWidth = max(pathWidth, DisplayWidth(displayPath(h)))
	}

	var b strings.Builder
	for _, h := range res.Hunks {
		status := h.Status.String()
		path := displayPath(h)
		b.WriteString(r.statusStyle(h.Status).Render(status))
		b.WriteString(strings.Repeat(" ", statusWidth-len(status)+2))
		b.WriteString(path)
		if h.Strategy != fuzzypatch.StrategyNone {
			b.WriteString(strings.Repeat(" ", pathWidth-DisplayWidth(path)+2))
			b.WriteString(r.muted.Render(h.Strategy.String()))
		}
		b.WriteByte('\n')
	}
	b.WriteString(r.summary.Render(res.Summary()))
	b.WriteByte('\n')

	_, err := fmt.Fprint(w, b.String())
	return err
}

func (r *Reporter) statusStyle(s fuzzypatch.Status) lipgloss.Style {
	switch s {
	case fuzzypatch.StatusApplied:
		return r.applied
	case fuzzypatch.StatusNotApplied:
		return r.notApplied
	default:
		return r.muted
	}
}

func displayPath(h fuzzypatch.HunkOutcome) string {
	if h.Path == "" {
		return "(no path)"
	}
	return h.Path
}
