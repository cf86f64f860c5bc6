package failures

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestConstructorsKeepSentinelAndCause(t *testing.T) {
	cause := errors.New("connection reset")

	cases := []struct {
		name     string
		err      error
		sentinel error
		code     string
		category goerrors.Category
	}{
		{"fatal", FatalIndex(cause), ErrFatalIndex, CodeFatalIndex, goerrors.CategoryBadInput},
		{"fetch", Fetch("article/1.json", cause), ErrFetch, CodeFetch, goerrors.CategoryExternal},
		{"encode", Encode("1", cause), ErrEncode, CodeEncode, goerrors.CategoryInternal},
		{"timestamp", TimestampParse("yesterday", cause), ErrTimestampParse, CodeTimestampParse, goerrors.CategoryValidation},
		{"commit", Commit("articles/1.json", cause), ErrCommit, CodeCommit, goerrors.CategoryExternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !errors.Is(tc.err, tc.sentinel) {
				t.Fatalf("expected %v to match sentinel %v", tc.err, tc.sentinel)
			}
			if !errors.Is(tc.err, cause) {
				t.Fatalf("expected %v to keep cause", tc.err)
			}
			if !goerrors.IsCategory(tc.err, tc.category) {
				t.Fatalf("expected category %v for %v", tc.category, tc.err)
			}
			if got := Kind(tc.err); got != tc.code {
				t.Fatalf("expected kind %s, got %s", tc.code, got)
			}
		})
	}
}

func TestIsFatalOnlyForIndexFailures(t *testing.T) {
	if !IsFatal(FatalIndex(nil)) {
		t.Fatal("expected index failure to be fatal")
	}
	if IsFatal(Fetch("x", nil)) {
		t.Fatal("expected fetch failure to be non-fatal")
	}
	if Kind(errors.New("other")) != "" {
		t.Fatal("expected empty kind for foreign errors")
	}
}
