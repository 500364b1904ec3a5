package fuzzypatch

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by FileAccess when a file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrNoHunks is returned when diff text contains no hunk at all.
	ErrNoHunks = errors.New("no hunks found in diff")
)

// Error records a storage failure and the path it happened on.
type Error struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
