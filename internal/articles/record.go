package articles

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record is the persisted JSON document for one article. Canonical fields are
// exposed through accessors; every other attribute is kept verbatim.
type Record struct {
	Object
}

// DecodeRecord parses a record payload. A JSON null or an empty object is
// reported as ErrEmptyRecord.
func DecodeRecord(data []byte) (Record, error) {
	var rec Record
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return rec, ErrEmptyRecord
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("articles: decode record: %w", err)
	}
	if rec.Len() == 0 {
		return Record{}, ErrEmptyRecord
	}
	return rec, nil
}

// NewRecord builds a record from key/value pairs, mostly for tests and
// fixtures. Values are marshalled with SetValue.
func NewRecord(pairs ...any) (Record, error) {
	var rec Record
	if len(pairs)%2 != 0 {
		return rec, fmt.Errorf("articles: NewRecord expects key/value pairs")
	}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return rec, fmt.Errorf("articles: key %v is not a string", pairs[i])
		}
		if err := rec.SetValue(key, pairs[i+1]); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// ID returns the article identifier normalised to a string. Missing, empty
// and zero identifiers yield "".
func (r Record) ID() string { return normalizeID(r.Text(KeyID)) }

// Title returns the article title.
func (r Record) Title() string { return r.Text(KeyTitle) }

// Content returns the raw article body.
func (r Record) Content() string { return r.Text(KeyContent) }

// CreateTime returns the creation time exactly as stored.
func (r Record) CreateTime() string { return r.Text(KeyCreateTime) }

// TypeName returns the article category name.
func (r Record) TypeName() string { return r.Text(KeyTypeName) }

// Created parses CreateTime.
func (r Record) Created() (time.Time, error) {
	return ParseCreateTime(r.CreateTime())
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	return Record{Object: r.Object.Clone()}
}

func normalizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "0" {
		return ""
	}
	return id
}
