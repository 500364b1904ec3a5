// Package jsonl writes and reads hunk outcomes as JSON Lines.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fwojciec/fuzzypatch"
)

// Record is one hunk outcome as stored in a journal.
type Record struct {
	RunID    string    `json:"run_id"`
	Time     time.Time `json:"time"`
	Source   string    `json:"source,omitempty"`
	Index    int       `json:"index"`
	Path     string    `json:"path"`
	Resolved string    `json:"resolved,omitempty"`
	Status   string    `json:"status"`
	Strategy string    `json:"strategy,omitempty"`
}

// Records converts res into journal records sharing runID, source and at.
func Records(runID, source string, at time.Time, res *fuzzypatch.Result) []Record {
	records := make([]Record, 0, len(res.Hunks))
	for _, h := range res.Hunks {
		r := Record{
			RunID:    runID,
			Time:     at,
			Source:   source,
			Index:    h.Index,
			Path:     h.Path,
			Resolved: h.Resolved,
			Status:   h.Status.String(),
		}
		if h.Strategy != fuzzypatch.StrategyNone {
			r.Strategy = h.Strategy.String()
		}
		records = append(records, r)
	}
	return records
}

// Writer encodes records, one JSON object per line.
type Writer struct {
	enc *json.Encoder
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Write encodes records in order.
func (w *Writer) Write(records []Record) error {
	for _, r := range records {
		if err := w.enc.Encode(r); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}
	return nil
}

// Append opens path for appending, creating it if needed, and writes
// records to it.
func Append(path string, records []Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if err := NewWriter(f).Write(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Loader reads journals.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every record of the journal at path. Blank lines are skipped.
func (l *Loader) Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return records, nil
}
