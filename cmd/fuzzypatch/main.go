// Command fuzzypatch applies loosely formatted unified diffs to a directory
// tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/fwojciec/fuzzypatch"
	"github.com/fwojciec/fuzzypatch/jsonl"
	"github.com/fwojciec/fuzzypatch/lipgloss"
	"github.com/fwojciec/fuzzypatch/preview"
	"github.com/spf13/cobra"
)

// ErrNoHunks is returned when the input contains no diff hunk.
var ErrNoHunks = fuzzypatch.ErrNoHunks

// App applies one diff and reports the outcome.
type App struct {
	Input    io.Reader // Used when FilePath is empty
	FilePath string

	Applier *fuzzypatch.Applier
	Output  io.Writer

	// Format is "text" for Reporter output or "jsonl" for one record per hunk.
	Format   string
	Reporter *lipgloss.Reporter

	// Preview renders each file change with Renderer, colored by Highlighter
	// when set.
	Preview     bool
	Renderer    *preview.Renderer
	Highlighter fuzzypatch.Highlighter

	Journal string // Optional JSONL journal path
	RunID   string
	Now     func() time.Time
}

// Run reads the diff, applies it and writes the report. The result is
// returned even when applying failed part way.
func (a *App) Run(ctx context.Context) (*fuzzypatch.Result, error) {
	text, err := a.readInput()
	if err != nil {
		return nil, err
	}

	doc := a.Applier.Parser.Parse(text)
	if len(doc.Hunks) == 0 {
		return nil, ErrNoHunks
	}

	res, applyErr := a.Applier.ApplyDocument(ctx, doc)

	if err := a.report(res); err != nil {
		return res, errors.Join(applyErr, err)
	}
	if a.Journal != "" {
		records := jsonl.Records(a.RunID, a.source(), a.now(), res)
		if err := jsonl.Append(a.Journal, records); err != nil {
			return res, errors.Join(applyErr, err)
		}
	}
	return res, applyErr
}

func (a *App) readInput() (string, error) {
	if a.FilePath != "" && a.FilePath != "-" {
		data, err := os.ReadFile(a.FilePath)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if a.Input == nil {
		return "", errors.New("no input")
	}
	data, err := io.ReadAll(a.Input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func (a *App) report(res *fuzzypatch.Result) error {
	out := a.Output
	if out == nil {
		out = io.Discard
	}

	if a.Preview && a.Renderer != nil {
		diff := a.Renderer.Render(res.Changes)
		if a.Highlighter != nil {
			if err := a.Highlighter.Highlight(out, diff); err != nil {
				return fmt.Errorf("highlight preview: %w", err)
			}
		} else if _, err := io.WriteString(out, diff); err != nil {
			return err
		}
	}

	switch {
	case a.Format == "jsonl":
		return jsonl.NewWriter(out).Write(jsonl.Records(a.RunID, a.source(), a.now(), res))
	case a.Reporter != nil:
		return a.Reporter.Report(out, res)
	default:
		_, err := fmt.Fprintln(out, res.Summary())
		return err
	}
}

func (a *App) source() string {
	if a.FilePath == "" || a.FilePath == "-" {
		return "stdin"
	}
	return a.FilePath
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:          "fuzzypatch [command]",
		Short:        "Apply loosely formatted unified diffs",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.root, "root", "", "directory relative diff paths are resolved against (default \".\")")
	rootCmd.PersistentFlags().StringVar(&flags.config, "config", "", "config file (default ~/.config/fuzzypatch/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&flags.color, "color", "", "auto, always or never")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
