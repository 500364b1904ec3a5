// Package watch applies diff files dropped into an inbox directory.
//
// Producers should write a file under a name the inbox ignores and rename it
// into place once complete; empty files are left alone until they are
// written to.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/fuzzypatch"
	"github.com/fwojciec/fuzzypatch/jsonl"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Suffixes appended to processed inbox files.
const (
	AppliedSuffix  = ".applied"
	RejectedSuffix = ".rejected"
	resultSuffix   = ".result.json"
)

// Applier applies diff text. *fuzzypatch.Applier implements it.
type Applier interface {
	Apply(ctx context.Context, diffText string) (*fuzzypatch.Result, error)
}

// Inbox watches Dir and applies every file with one of Extensions.
type Inbox struct {
	Dir        string
	Applier    Applier
	Extensions []string // Including the dot, e.g. ".diff"
	DiffField  string   // gjson path of the diff in .json payloads
	Journal    string   // Optional JSONL journal path
	Logger     *slog.Logger

	// DryRun leaves processed files in place. The applier is expected to
	// be in dry-run mode as well.
	DryRun bool

	NewRunID func() string    // Defaults to a random UUID
	Now      func() time.Time // Defaults to time.Now
}

// Outcome describes one processed inbox file.
type Outcome struct {
	RunID   string
	Source  string             // Path of the inbox file
	Renamed string             // Path after renaming; empty in a dry run
	Result  *fuzzypatch.Result // Nil when the file held no diff
	Err     error              // Why the file was rejected, if it was
}

// Accepted reports whether at least one hunk applied.
func (o *Outcome) Accepted() bool {
	return o.Err == nil && o.Result != nil && o.Result.Applied > 0
}

// Run processes files already in the inbox, then every file that appears
// until ctx is cancelled.
func (in *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(in.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", in.Dir, err)
	}
	in.logger().Info("watching inbox", "dir", in.Dir, "extensions", in.Extensions)

	entries, err := os.ReadDir(in.Dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			in.handle(ctx, filepath.Join(in.Dir, e.Name()))
		}
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			in.handle(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching: %w", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (in *Inbox) handle(ctx context.Context, path string) {
	if !in.Wants(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		// Gone (already processed), or not written yet.
		return
	}
	if _, err := in.Process(ctx, path); err != nil {
		in.logger().Error("processing inbox file", "file", path, "error", err)
	}
}

// Wants reports whether path names a file the inbox should process.
func (in *Inbox) Wants(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, resultSuffix) {
		return false
	}
	return slices.Contains(in.Extensions, filepath.Ext(base))
}

// Process applies the diff in path and renames the file with AppliedSuffix
// or RejectedSuffix, unless DryRun is set. For .json payloads a result document is written next
// to it. The returned error is only set when the file could not be renamed.
func (in *Inbox) Process(ctx context.Context, path string) (*Outcome, error) {
	out := &Outcome{RunID: in.newRunID(), Source: path}
	log := in.logger().With("run", out.RunID, "file", filepath.Base(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inbox file: %w", err)
	}
	isJSON := filepath.Ext(path) == ".json"

	diff := string(data)
	if isJSON {
		diff, err = in.extractDiff(data)
	}
	if err == nil {
		out.Result, err = in.Applier.Apply(ctx, diff)
	}
	out.Err = err
	if err == nil && out.Result.Applied == 0 {
		out.Err = errors.New("no hunk applied")
	}

	if out.Result != nil && in.Journal != "" {
		records := jsonl.Records(out.RunID, filepath.Base(path), in.now(), out.Result)
		if err := jsonl.Append(in.Journal, records); err != nil {
			log.Error("writing journal", "error", err)
		}
	}

	if !in.DryRun {
		suffix := AppliedSuffix
		if !out.Accepted() {
			suffix = RejectedSuffix
		}
		out.Renamed = path + suffix
		if err := os.Rename(path, out.Renamed); err != nil {
			return out, fmt.Errorf("rename inbox file: %w", err)
		}
	}

	if isJSON {
		if err := in.writeResult(data, out); err != nil {
			log.Error("writing result", "error", err)
		}
	}

	if out.Accepted() {
		log.Info("inbox file applied", "summary", out.Result.Summary())
	} else {
		log.Warn("inbox file rejected", "reason", out.Err)
	}
	return out, nil
}

func (in *Inbox) extractDiff(payload []byte) (string, error) {
	if !gjson.ValidBytes(payload) {
		return "", errors.New("payload is not valid JSON")
	}
	field := in.DiffField
	if field == "" {
		field = "diff"
	}
	v := gjson.GetBytes(payload, field)
	if v.Type != gjson.String {
		return "", fmt.Errorf("payload has no string at %q", field)
	}
	return v.String(), nil
}

// hunkResult is the per-hunk entry of a result document.
type hunkResult struct {
	Index    int    `json:"index"`
	Path     string `json:"path"`
	Status   string `json:"status"`
	Strategy string `json:"strategy,omitempty"`
}

// writeResult stores the payload, extended with a "fuzzypatch" object, as
// <payload>.result.json.
func (in *Inbox) writeResult(payload []byte, out *Outcome) error {
	doc := string(payload)
	if !gjson.Valid(doc) || !gjson.Parse(doc).IsObject() {
		doc = "{}"
	}

	type field struct {
		path  string
		value any
	}
	fields := []field{
		{"fuzzypatch.run_id", out.RunID},
		{"fuzzypatch.accepted", out.Accepted()},
	}
	if out.Err != nil {
		fields = append(fields, field{"fuzzypatch.error", out.Err.Error()})
	}
	if out.Result != nil {
		hunks := make([]hunkResult, 0, len(out.Result.Hunks))
		for _, h := range out.Result.Hunks {
			hr := hunkResult{Index: h.Index, Path: h.Path, Status: h.Status.String()}
			if h.Strategy != fuzzypatch.StrategyNone {
				hr.Strategy = h.Strategy.String()
			}
			hunks = append(hunks, hr)
		}
		fields = append(fields,
			field{"fuzzypatch.applied", out.Result.Applied},
			field{"fuzzypatch.total", len(out.Result.Hunks)},
			field{"fuzzypatch.hunks", hunks},
		)
	}

	var err error
	for _, f := range fields {
		if doc, err = sjson.Set(doc, f.path, f.value); err != nil {
			return fmt.Errorf("set %s: %w", f.path, err)
		}
	}
	name := strings.TrimSuffix(out.Source, ".json") + resultSuffix
	return os.WriteFile(name, []byte(doc+"\n"), 0o644)
}

func (in *Inbox) newRunID() string {
	if in.NewRunID != nil {
		return in.NewRunID()
	}
	return uuid.NewString()
}

func (in *Inbox) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}

func (in *Inbox) logger() *slog.Logger {
	if in.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return in.Logger
}
