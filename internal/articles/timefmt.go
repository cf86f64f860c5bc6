package articles

import (
	"errors"
	"strings"
	"time"
)

// CreateTimeLayout is the wire format of createTime values, interpreted as UTC.
const CreateTimeLayout = "2006-01-02 15:04:05"

// ErrMissingTime is returned by ParseCreateTime for empty input.
var ErrMissingTime = errors.New("articles: createTime missing")

// ParseCreateTime parses a createTime value.
func ParseCreateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrMissingTime
	}
	return time.ParseInLocation(CreateTimeLayout, value, time.UTC)
}

// FormatCreateTime renders t in the wire format.
func FormatCreateTime(t time.Time) string {
	return t.UTC().Format(CreateTimeLayout)
}
