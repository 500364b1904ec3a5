package gitdiff_test

import (
	"testing"

	"github.com/fwojciec/fuzzypatch/gitdiff"
	"github.com/fwojciec/fuzzypatch/unidiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		diff    string
		wantErr string
	}{
		{
			name: "accepts matching counts",
			diff: "@@ -1,3 +1,3 @@\n a\n-b\n+B\n c\n",
		},
		{
			name: "accepts a bare header",
			diff: "@@ ... @@\n a\n-b\n",
		},
		{
			name:    "flags an old count that disagrees with the body",
			diff:    "@@ -1,5 +1,3 @@\n a\n-b\n+B\n c\n",
			wantErr: "fragment contains 3 old lines but reports 5",
		},
		{
			name:    "flags a new count that disagrees with the body",
			diff:    "@@ -1,3 +1,4 @@\n a\n-b\n+B\n c\n",
			wantErr: "fragment contains 3 new lines but reports 4",
		},
		{
			name: "accepts a file creation",
			diff: "@@ -0,0 +1,2 @@\n+a\n+b\n",
		},
		{
			name:    "flags context in a file creation",
			diff:    "@@ -0,1 +1,2 @@\n a\n+b\n",
			wantErr: "file creation fragment contains context or deletion lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc := unidiff.NewParser().Parse("--- f\n+++ f\n" + tt.diff)
			require.Len(t, doc.Hunks, 1)

			err := gitdiff.NewValidator().Validate(doc.Hunks[0])

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestFragment(t *testing.T) {
	t.Parallel()

	doc := unidiff.NewParser().Parse("--- f\n+++ f\n@@ -4,4 +4,4 @@ func f() {\n a\n b\n-c\n+C\n d\n")
	require.Len(t, doc.Hunks, 1)

	frag := gitdiff.Fragment(doc.Hunks[0])

	assert.Equal(t, "func f() {", frag.Comment)
	assert.Equal(t, int64(4), frag.OldPosition)
	assert.Equal(t, int64(2), frag.LeadingContext)
	assert.Equal(t, int64(1), frag.TrailingContext)
	assert.Equal(t, int64(1), frag.LinesAdded)
	assert.Equal(t, int64(1), frag.LinesDeleted)
	assert.Len(t, frag.Lines, 5)
	assert.NoError(t, frag.Validate())
}
