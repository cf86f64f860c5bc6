// Package failures defines the error taxonomy shared by the sync pipeline.
// Only FatalIndex errors abort a run; every other kind is isolated to the
// article it concerns and reported alongside the run result.
package failures

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeFatalIndex     = "FATAL_INDEX"
	CodeFetch          = "FETCH_FAILED"
	CodeEncode         = "ENCODE_FAILED"
	CodeTimestampParse = "TIMESTAMP_PARSE"
	CodeCommit         = "COMMIT_FAILED"
)

var (
	ErrFatalIndex     = errors.New("feedmirror: remote index unusable")
	ErrFetch          = errors.New("feedmirror: fetch failed")
	ErrEncode         = errors.New("feedmirror: encode failed")
	ErrTimestampParse = errors.New("feedmirror: timestamp parse failed")
	ErrCommit         = errors.New("feedmirror: history commit failed")
)

// FatalIndex wraps cause as a run-aborting index failure.
func FatalIndex(cause error) error {
	return goerrors.Wrap(join(ErrFatalIndex, cause), goerrors.CategoryBadInput, "remote index unusable").
		WithTextCode(CodeFatalIndex)
}

// Fetch reports a failed retrieval of the resource behind target.
func Fetch(target string, cause error) error {
	return goerrors.Wrap(join(ErrFetch, fmt.Errorf("%s: %w", target, orUnknown(cause))), goerrors.CategoryExternal, "fetch failed").
		WithTextCode(CodeFetch)
}

// Encode reports a failed persistence write for the article id.
func Encode(id string, cause error) error {
	return goerrors.Wrap(join(ErrEncode, fmt.Errorf("article %s: %w", id, orUnknown(cause))), goerrors.CategoryInternal, "encode failed").
		WithTextCode(CodeEncode)
}

// TimestampParse reports a creation time that does not match the wire format.
func TimestampParse(value string, cause error) error {
	return goerrors.Wrap(join(ErrTimestampParse, fmt.Errorf("value %q: %w", value, orUnknown(cause))), goerrors.CategoryValidation, "timestamp parse failed").
		WithTextCode(CodeTimestampParse)
}

// Commit reports a history log failure for path.
func Commit(path string, cause error) error {
	return goerrors.Wrap(join(ErrCommit, fmt.Errorf("%s: %w", path, orUnknown(cause))), goerrors.CategoryExternal, "history commit failed").
		WithTextCode(CodeCommit)
}

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatalIndex)
}

// Kind returns the text code matching err, or an empty string for errors
// outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFatalIndex):
		return CodeFatalIndex
	case errors.Is(err, ErrFetch):
		return CodeFetch
	case errors.Is(err, ErrEncode):
		return CodeEncode
	case errors.Is(err, ErrTimestampParse):
		return CodeTimestampParse
	case errors.Is(err, ErrCommit):
		return CodeCommit
	default:
		return ""
	}
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

var errUnknown = errors.New("unknown cause")

func orUnknown(err error) error {
	if err == nil {
		return errUnknown
	}
	return err
}
