package graft

import "errors"

var (
	// ErrNotFound is returned by non-optional lookups with no match.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguous is returned when a single-result lookup matches more
	// than one symbol. Call the plural lookup to disambiguate.
	ErrAmbiguous = errors.New("ambiguous name")

	// ErrSessionLimit fails a commit whose session exceeded a soft
	// bound. Nothing is applied.
	ErrSessionLimit = errors.New("session limit exceeded")

	// ErrCommitFailed marks a file whose rewritten text did not parse.
	// The file is left untouched; other files' commits proceed.
	ErrCommitFailed = errors.New("commit failed")
)
