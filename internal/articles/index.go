package articles

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrEmptyRecord is returned for null or empty article payloads.
	ErrEmptyRecord = errors.New("articles: empty record")
	// ErrIndexNotArray is returned when the index payload is not a JSON array.
	ErrIndexNotArray = errors.New("articles: index payload is not a JSON array")
)

// IndexEntry is one element of the remote article index.
type IndexEntry struct {
	Object
}

// DecodeIndex parses the remote index payload. Elements that are not JSON
// objects are rejected.
func DecodeIndex(data []byte) ([]IndexEntry, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed[0] != '[' {
		return nil, ErrIndexNotArray
	}
	var entries []IndexEntry
	if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
		return nil, fmt.Errorf("articles: decode index: %w", err)
	}
	return entries, nil
}

// NewIndexEntry builds an entry from key/value pairs.
func NewIndexEntry(pairs ...any) (IndexEntry, error) {
	rec, err := NewRecord(pairs...)
	if err != nil {
		return IndexEntry{}, err
	}
	return IndexEntry{Object: rec.Object}, nil
}

// ID returns the article identifier normalised to a string.
func (e IndexEntry) ID() string { return normalizeID(e.Text(KeyID)) }

// Title returns the article title.
func (e IndexEntry) Title() string { return e.Text(KeyTitle) }

// CreateTime returns the creation time exactly as published in the index.
func (e IndexEntry) CreateTime() string { return e.Text(KeyCreateTime) }

// Desc returns the short description.
func (e IndexEntry) Desc() string { return e.Text(KeyDesc) }

// TypeName returns the article category name.
func (e IndexEntry) TypeName() string { return e.Text(KeyTypeName) }

// SuggestCover returns the cover image URL.
func (e IndexEntry) SuggestCover() string { return e.Text(KeySuggestCover) }

// SortingMark returns the CMS ordering hint as its literal text.
func (e IndexEntry) SortingMark() string { return e.Text(KeySortingMark) }

// Top returns the pinned flag as its literal text.
func (e IndexEntry) Top() string { return e.Text(KeyTop) }

// Created parses CreateTime.
func (e IndexEntry) Created() (time.Time, error) {
	return ParseCreateTime(e.CreateTime())
}
