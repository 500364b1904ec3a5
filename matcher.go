package fuzzypatch

// Matcher locates a hunk in file content and computes the patched content.
type Matcher interface {
	// Apply returns a result with Applied set only when the hunk could be
	// placed without guessing. It never mutates hunk.
	Apply(content string, hunk FileHunk) MatchResult
}

// MatchResult is the outcome of matching one hunk against file content.
type MatchResult struct {
	Applied  bool
	Content  string   // New content; empty when not applied
	Strategy Strategy // The cascade stage that placed the hunk
}

// NotApplied is the result for a hunk that could not be placed.
var NotApplied = MatchResult{}

// Strategy identifies the stage of the match cascade that succeeded.
type Strategy int

// Match strategies, in cascade order.
const (
	StrategyNone Strategy = iota
	StrategyNewFile
	StrategyDirect
	StrategyAlreadyApplied
	StrategyNarrowed
	StrategyReconciled
)

func (s Strategy) String() string {
	switch s {
	case StrategyNewFile:
		return "new-file"
	case StrategyDirect:
		return "direct"
	case StrategyAlreadyApplied:
		return "already-applied"
	case StrategyNarrowed:
		return "narrowed"
	case StrategyReconciled:
		return "reconciled"
	default:
		return "none"
	}
}

// HunkValidator checks a hunk for internal inconsistencies, such as header
// line counts that disagree with its body. Findings are diagnostics only.
type HunkValidator interface {
	Validate(hunk FileHunk) error
}
