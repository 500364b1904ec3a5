package config

// DefaultRoot falls back to the current working directory.
const DefaultRoot = "."

// DefaultLogLevel is the log level used when none is configured.
const DefaultLogLevel = "info"

// DefaultColor detects color support from the terminal.
const DefaultColor = "auto"

// DefaultFormat is the human-readable report.
const DefaultFormat = "text"

// DefaultDiffField is the gjson path of the diff in JSON inbox payloads.
const DefaultDiffField = "diff"

// DefaultExtensions are the inbox file extensions treated as diffs.
var DefaultExtensions = []string{".diff", ".patch", ".json"}
