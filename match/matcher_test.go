package match_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/fwojciec/fuzzypatch"
	"github.com/fwojciec/fuzzypatch/match"
	"github.com/fwojciec/fuzzypatch/unidiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hunk parses a single-hunk diff body written with the usual markers.
func hunk(t *testing.T, body string) fuzzypatch.FileHunk {
	t.Helper()
	doc := unidiff.NewParser().Parse("--- f.txt\n+++ f.txt\n@@ @@\n" + body)
	require.Len(t, doc.Hunks, 1)
	return doc.Hunks[0]
}

func TestMatcher_Apply_Direct(t *testing.T) {
	t.Parallel()

	t.Run("replaces a unique anchor", func(t *testing.T) {
		t.Parallel()

		content := "def subtract(a, b):\n    return a - b\n"
		h := hunk(t, ` def subtract(a, b):
-    return a - b
+    return (a - b)
+
+def multiply(a, b):
+    return a * b
`)
		res := match.NewMatcher(nil).Apply(content, h)

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyDirect, res.Strategy)
		assert.Equal(t, "def subtract(a, b):\n    return (a - b)\n\ndef multiply(a, b):\n    return a * b\n", res.Content)
	})

	t.Run("equals a literal substring replacement", func(t *testing.T) {
		t.Parallel()

		content := "header\nfunc a() {\n\treturn 1\n}\nfooter\n"
		h := hunk(t, " func a() {\n-\treturn 1\n+\treturn 2\n }\n")
		before, after := h.BeforeAfter()

		res := match.NewMatcher(nil).Apply(content, h)

		require.True(t, res.Applied)
		assert.Equal(t, strings.Replace(content, before, after, 1), res.Content)
	})

	t.Run("refuses a short anchor that occurs twice", func(t *testing.T) {
		t.Parallel()

		content := "x = 1\ny = 2\nx = 1\n"
		h := hunk(t, "-x = 1\n+x = 3\n")

		res := match.NewMatcher(nil).Apply(content, h)

		assert.False(t, res.Applied)
		assert.Empty(t, res.Content)
	})

	t.Run("refuses a long anchor that occurs twice", func(t *testing.T) {
		t.Parallel()

		block := "if err != nil {\n\treturn err\n}\n"
		content := block + "\n" + block
		h := hunk(t, " if err != nil {\n-\treturn err\n+\treturn fmt.Errorf(\"wrap: %w\", err)\n }\n")

		res := match.NewMatcher(nil).Apply(content, h)

		assert.False(t, res.Applied)
	})

	t.Run("logs why an anchor was refused", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		h := hunk(t, "-x = 1\n+x = 3\n")

		match.NewMatcher(logger).Apply("x = 1\nx = 1\n", h)

		assert.Contains(t, buf.String(), "anchor too short to disambiguate")
	})
}

func TestMatcher_Apply_NewFile(t *testing.T) {
	t.Parallel()

	t.Run("creates content for an empty file", func(t *testing.T) {
		t.Parallel()

		res := match.NewMatcher(nil).Apply("", hunk(t, "+hello\n+world\n"))

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyNewFile, res.Strategy)
		assert.Equal(t, "hello\nworld\n", res.Content)
	})

	t.Run("refuses a pure insertion into existing content", func(t *testing.T) {
		t.Parallel()

		res := match.NewMatcher(nil).Apply("existing\n", hunk(t, "+hello\n"))

		assert.False(t, res.Applied)
	})
}

func TestMatcher_Apply_Narrowed(t *testing.T) {
	t.Parallel()

	t.Run("places each change run with the context that still matches", func(t *testing.T) {
		t.Parallel()

		content := "alpha\nbeta\ngamma\ndelta\nepsilon\n"
		h := hunk(t, ` alpha
-beta
+BETA
 gamma
 WRONG
 delta
-epsilon
+EPSILON
`)
		res := match.NewMatcher(nil).Apply(content, h)

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyNarrowed, res.Strategy)
		assert.Equal(t, "alpha\nBETA\ngamma\ndelta\nEPSILON\n", res.Content)
	})

	t.Run("uses context to disambiguate a short anchor", func(t *testing.T) {
		t.Parallel()

		content := "[first]\nx = 1\n\n[second]\nx = 1\n"
		h := hunk(t, " [second]\n-x = 1\n+x = 2\n STALE\n")

		res := match.NewMatcher(nil).Apply(content, h)

		require.True(t, res.Applied)
		assert.Equal(t, "[first]\nx = 1\n\n[second]\nx = 2\n", res.Content)
	})

	t.Run("applies all change runs or none", func(t *testing.T) {
		t.Parallel()

		content := "alpha\nbeta\ngamma\n"
		h := hunk(t, ` alpha
-beta
+BETA
 gamma
-missing one
-missing two
-missing three
+x
`)
		res := match.NewMatcher(nil).Apply(content, h)

		assert.False(t, res.Applied)
		assert.Empty(t, res.Content)
	})
}

func TestMatcher_Apply_Reconciled(t *testing.T) {
	t.Parallel()

	t.Run("makes context missing from the file an insertion", func(t *testing.T) {
		t.Parallel()

		content := "def add(a, b):\n    return a + b\n\ndef plus(a, b):\n    return a + b\n"
		h := hunk(t, ` def plus(a, b):
     """Alias of add."""
-    return a + b
+    return add(a, b)
`)
		res := match.NewMatcher(nil).Apply(content, h)

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyReconciled, res.Strategy)
		assert.Equal(t, "def add(a, b):\n    return a + b\n\ndef plus(a, b):\n    \"\"\"Alias of add.\"\"\"\n    return add(a, b)\n", res.Content)
	})

	t.Run("gives up when too little of the hunk exists in the file", func(t *testing.T) {
		t.Parallel()

		content := "one\ntwo\nthree\n"
		h := hunk(t, " one\n nothing\n like\n this\n-four\n+4\n")

		res := match.NewMatcher(nil).Apply(content, h)

		assert.False(t, res.Applied)
	})

	t.Run("honours the configured ratio", func(t *testing.T) {
		t.Parallel()

		content := "def add(a, b):\n    return a + b\n\ndef plus(a, b):\n    return a + b\n"
		h := hunk(t, ` def plus(a, b):
     # first invented line
     # second invented line
-    return a + b
+    return add(a, b)
`)
		assert.False(t, match.NewMatcher(nil).Apply(content, h).Applied)

		lenient := &match.Matcher{ReconcileRatio: 0.5}
		res := lenient.Apply(content, h)
		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyReconciled, res.Strategy)
		assert.Equal(t, "def add(a, b):\n    return a + b\n\ndef plus(a, b):\n    # first invented line\n    # second invented line\n    return add(a, b)\n", res.Content)

		strict := &match.Matcher{ReconcileRatio: 0.9}
		docstring := hunk(t, " def plus(a, b):\n     \"\"\"Alias.\"\"\"\n-    return a + b\n+    return add(a, b)\n")
		assert.False(t, strict.Apply(content, docstring).Applied)
	})
}

func TestMatcher_Apply_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		body    string
	}{
		{
			name:    "replacement",
			content: "def subtract(a, b):\n    return a - b\n",
			body:    " def subtract(a, b):\n-    return a - b\n+    return (a - b)\n",
		},
		{
			name:    "insertion between context",
			content: "import sys\n\nprint(sys.argv)\n",
			body:    " import sys\n+import os\n \n",
		},
		{
			name:    "replacement after long context",
			content: "a line\nb line\nc line\nd line\n",
			body:    " a line\n b line\n c line\n-d line\n+D line\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := match.NewMatcher(nil)
			h := hunk(t, tt.body)

			first := m.Apply(tt.content, h)
			require.True(t, first.Applied)
			require.NotEqual(t, tt.content, first.Content)

			second := m.Apply(first.Content, h)
			if second.Applied {
				assert.Equal(t, first.Content, second.Content)
			}
		})
	}
}

func TestMatcher_Apply_DoesNotMutateHunk(t *testing.T) {
	t.Parallel()

	h := hunk(t, " def plus(a, b):\n     \"\"\"Alias.\"\"\"\n-    return a + b\n+    return add(a, b)\n")
	lines := append([]fuzzypatch.HunkLine(nil), h.Lines...)

	match.NewMatcher(nil).Apply("def add(a, b):\n    return a + b\n\ndef plus(a, b):\n    return a + b\n", h)

	assert.Equal(t, lines, h.Lines)
}

func TestMatcher_Apply_ContextOnly(t *testing.T) {
	t.Parallel()

	content := "one\ntwo\n"
	res := match.NewMatcher(nil).Apply(content, hunk(t, " one\n two\n"))

	require.True(t, res.Applied)
	assert.Equal(t, content, res.Content)
}

func TestMatcher_Apply_ContextOnlyMissing(t *testing.T) {
	t.Parallel()

	res := match.NewMatcher(nil).Apply("one\ntwo\n", hunk(t, " three\n four\n"))

	assert.False(t, res.Applied)
}

func TestMatcher_Apply_AlreadyApplied(t *testing.T) {
	t.Parallel()

	t.Run("still deletes a line whose leftover context appears elsewhere", func(t *testing.T) {
		t.Parallel()

		content := "func f() {\n\tx := compute(1)\n\n\treturn\n}\n"
		res := match.NewMatcher(nil).Apply(content, hunk(t, "-\tx := compute(1)\n \treturn\n"))

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyNarrowed, res.Strategy)
		assert.Equal(t, "func f() {\n\n\treturn\n}\n", res.Content)
	})

	t.Run("reports an insertion that is already present", func(t *testing.T) {
		t.Parallel()

		content := "import sys\nimport os\n\nprint(1)\n"
		res := match.NewMatcher(nil).Apply(content, hunk(t, " import sys\n+import os\n \n"))

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyAlreadyApplied, res.Strategy)
		assert.Equal(t, content, res.Content)
	})

	t.Run("does not reconcile a replacement that was already made", func(t *testing.T) {
		t.Parallel()

		content := "a line\nb line\nc line\nD line\n"
		res := match.NewMatcher(nil).Apply(content, hunk(t, " a line\n b line\n c line\n-d line\n+D line\n"))

		require.True(t, res.Applied)
		assert.Equal(t, fuzzypatch.StrategyAlreadyApplied, res.Strategy)
		assert.Equal(t, content, res.Content)
	})
}
