package jsonl_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/fuzzypatch"
	"github.com/fwojciec/fuzzypatch/jsonl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleResult() *fuzzypatch.Result {
	return &fuzzypatch.Result{
		Applied: 1,
		Hunks: []fuzzypatch.HunkOutcome{
			{Index: 0, Path: "a.go", Resolved: "/repo/a.go", Status: fuzzypatch.StatusApplied, Strategy: fuzzypatch.StrategyNarrowed},
			{Index: 1, Path: "", Status: fuzzypatch.StatusSkipped},
		},
	}
}

func TestRecords(t *testing.T) {
	t.Parallel()

	records := jsonl.Records("run-1", "fix.diff", at, sampleResult())

	require.Len(t, records, 2)
	assert.Equal(t, jsonl.Record{
		RunID:    "run-1",
		Time:     at,
		Source:   "fix.diff",
		Index:    0,
		Path:     "a.go",
		Resolved: "/repo/a.go",
		Status:   "applied",
		Strategy: "narrowed",
	}, records[0])
	assert.Equal(t, "skipped", records[1].Status)
	assert.Empty(t, records[1].Strategy)
}

func TestWriter_Write(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := jsonl.NewWriter(&buf).Write(jsonl.Records("run-1", "", at, sampleResult()))

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"run_id":"run-1","time":"2026-03-01T12:00:00Z","index":0,"path":"a.go","resolved":"/repo/a.go","status":"applied","strategy":"narrowed"}`, lines[0])
	assert.Equal(t, `{"run_id":"run-1","time":"2026-03-01T12:00:00Z","index":1,"path":"","status":"skipped"}`, lines[1])
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	t.Run("loads what was appended", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "journal.jsonl")
		require.NoError(t, jsonl.Append(path, jsonl.Records("run-1", "a.diff", at, sampleResult())))
		require.NoError(t, jsonl.Append(path, jsonl.Records("run-2", "b.diff", at, sampleResult())))

		records, err := jsonl.NewLoader().Load(path)

		require.NoError(t, err)
		require.Len(t, records, 4)
		assert.Equal(t, "run-1", records[0].RunID)
		assert.Equal(t, "run-2", records[3].RunID)
		assert.True(t, at.Equal(records[2].Time))
	})

	t.Run("skips blank lines", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "journal.jsonl")
		content := `{"run_id":"r","index":0,"path":"a","status":"applied"}

{"run_id":"r","index":1,"path":"b","status":"not-applied"}
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		records, err := jsonl.NewLoader().Load(path)

		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		t.Parallel()

		_, err := jsonl.NewLoader().Load("/nonexistent/journal.jsonl")

		assert.Error(t, err)
	})

	t.Run("returns error for malformed JSON line", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.jsonl")
		content := `{"run_id":"r","index":0,"path":"a","status":"applied"}
not valid json
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		_, err := jsonl.NewLoader().Load(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})
}
