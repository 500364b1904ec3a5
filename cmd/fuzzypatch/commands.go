package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fwojciec/fuzzypatch"
	"github.com/fwojciec/fuzzypatch/chroma"
	"github.com/fwojciec/fuzzypatch/config"
	"github.com/fwojciec/fuzzypatch/fs"
	"github.com/fwojciec/fuzzypatch/gitdiff"
	"github.com/fwojciec/fuzzypatch/jsonl"
	"github.com/fwojciec/fuzzypatch/lipgloss"
	"github.com/fwojciec/fuzzypatch/match"
	"github.com/fwojciec/fuzzypatch/preview"
	"github.com/fwojciec/fuzzypatch/unidiff"
	"github.com/fwojciec/fuzzypatch/watch"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// flags holds command line values; they override the config file when set.
var flags struct {
	root        string
	config      string
	logLevel    string
	color       string
	dryRun      bool
	preview     bool
	concurrency int
	format      string
	style       string
	journal     string
	run         string
}

var applyCmd = &cobra.Command{
	Use:   "apply [diff-file]",
	Short: "Apply a diff read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runID := uuid.NewString()
		logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, runID)
		if err != nil {
			return err
		}

		profile := colorProfile(cmd.OutOrStdout(), cfg.Color)
		app := &App{
			Input:       cmd.InOrStdin(),
			Applier:     newApplier(cfg, logger),
			Output:      cmd.OutOrStdout(),
			Format:      cfg.Output.Format,
			Reporter:    lipgloss.NewReporter(cmd.OutOrStdout(), profile),
			Preview:     flags.preview,
			Renderer:    preview.NewRenderer(cfg.Root),
			Highlighter: chroma.NewHighlighter(profile, cfg.Output.Style),
			Journal:     cfg.Output.Journal,
			RunID:       runID,
		}
		if len(args) == 1 {
			app.FilePath = args[0]
		}

		res, err := app.Run(cmd.Context())
		if err != nil {
			return err
		}
		logger.Debug("apply finished", "summary", res.Summary())
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Apply every diff file dropped into an inbox directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, uuid.NewString())
		if err != nil {
			return err
		}

		inbox := &watch.Inbox{
			Dir:        args[0],
			Applier:    newApplier(cfg, logger),
			Extensions: cfg.Watch.Extensions,
			DiffField:  cfg.Watch.DiffField,
			Journal:    cfg.Output.Journal,
			Logger:     logger,
			DryRun:     cfg.DryRun,
		}
		return inbox.Run(cmd.Context())
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <journal>",
	Short: "Print the hunk outcomes recorded in a journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := jsonl.NewLoader().Load(args[0])
		if err != nil {
			return err
		}
		return PrintHistory(cmd.OutOrStdout(), records, flags.run)
	},
}

func init() {
	applyCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "compute changes without writing files")
	applyCmd.Flags().BoolVar(&flags.preview, "preview", false, "print a unified diff of every file change")
	applyCmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "number of files patched in parallel")
	applyCmd.Flags().StringVar(&flags.format, "format", "", "report format: text or jsonl")
	applyCmd.Flags().StringVar(&flags.style, "style", "", "chroma style for --preview")
	applyCmd.Flags().StringVar(&flags.journal, "journal", "", "append hunk outcomes to this JSONL file")

	watchCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "compute changes without writing files")
	watchCmd.Flags().StringVar(&flags.journal, "journal", "", "append hunk outcomes to this JSONL file")

	historyCmd.Flags().StringVar(&flags.run, "run", "", "only show records of this run id")
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flags.config)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("root") {
		cfg.Root = flags.root
	}
	if set("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if set("color") {
		cfg.Color = flags.color
	}
	if set("dry-run") {
		cfg.DryRun = flags.dryRun
	}
	if set("concurrency") {
		cfg.Concurrency = flags.concurrency
	}
	if set("format") {
		cfg.Output.Format = flags.format
	}
	if set("style") {
		cfg.Output.Style = flags.style
	}
	if set("journal") {
		cfg.Output.Journal = flags.journal
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, level, runID string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler).With("run", runID), nil
}

func newApplier(cfg *config.Config, logger *slog.Logger) *fuzzypatch.Applier {
	return &fuzzypatch.Applier{
		Parser: unidiff.NewParser(),
		Matcher: &match.Matcher{
			MinAnchorChars: cfg.Matcher.MinAnchorChars,
			ReconcileRatio: cfg.Matcher.ReconcileRatio,
			Logger:         logger,
		},
		Files:       fs.NewFileSystem(cfg.Root),
		Validator:   gitdiff.NewValidator(),
		Logger:      logger,
		DryRun:      cfg.DryRun,
		Concurrency: cfg.Concurrency,
	}
}

// colorProfile maps the color setting to a termenv profile for w.
func colorProfile(w io.Writer, color string) termenv.Profile {
	switch color {
	case "never":
		return termenv.Ascii
	case "always":
		if p := termenv.NewOutput(w, termenv.WithUnsafe()).EnvColorProfile(); p != termenv.Ascii {
			return p
		}
		return termenv.ANSI256
	default:
		if f, ok := w.(*os.File); ok {
			return termenv.NewOutput(f).EnvColorProfile()
		}
		return termenv.Ascii
	}
}

// PrintHistory writes one line per record, limited to run when it is set.
func PrintHistory(w io.Writer, records []jsonl.Record, run string) error {
	for _, r := range records {
		if run != "" && r.RunID != run {
			continue
		}
		strategy := r.Strategy
		if strategy == "" {
			strategy = "-"
		}
		path := r.Path
		if path == "" {
			path = "(no path)"
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %-11s  %s  %s\n",
			r.Time.UTC().Format(time.RFC3339), r.RunID, r.Status, path, strategy); err != nil {
			return err
		}
	}
	return nil
}
