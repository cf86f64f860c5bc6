package articles

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrNotObject is returned when a payload expected to be a JSON object is
// something else.
var ErrNotObject = errors.New("articles: payload is not a JSON object")

// Object is a JSON object that remembers the order of its keys and keeps
// every value verbatim. It is the storage behind Record and IndexEntry so
// attributes the pipeline does not know about survive a round-trip.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	o.keys = o.keys[:0]
	o.values = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("articles: unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("articles: decode %q: %w", key, err)
		}
		o.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Keys keep their insertion order and
// string values are re-encoded without HTML or unicode escaping.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := marshalString(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		value, err := canonicalValue(o.values[key])
		if err != nil {
			return nil, fmt.Errorf("articles: encode %q: %w", key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	return slices.Clone(o.keys)
}

// Len returns the number of keys.
func (o Object) Len() int {
	return len(o.keys)
}

// Has reports whether key is defined, including keys holding JSON null.
func (o Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Get returns the raw value stored under key.
func (o Object) Get(key string) (json.RawMessage, bool) {
	value, ok := o.values[key]
	return value, ok
}

// Set stores raw under key. New keys are appended, existing keys keep their
// position.
func (o *Object) Set(key string, raw json.RawMessage) {
	if o.values == nil {
		o.values = make(map[string]json.RawMessage)
	}
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = slices.Clone(raw)
}

// SetValue marshals value and stores it under key.
func (o *Object) SetValue(key string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	o.Set(key, raw)
	return nil
}

// Text returns the value under key as text. Strings are unquoted, numbers
// and booleans are returned as their literal, null and absent keys yield "".
func (o Object) Text(key string) string {
	raw, ok := o.values[key]
	if !ok {
		return ""
	}
	return rawText(raw)
}

// Clone returns a deep copy.
func (o Object) Clone() Object {
	out := Object{
		keys:   slices.Clone(o.keys),
		values: make(map[string]json.RawMessage, len(o.values)),
	}
	for k, v := range o.values {
		out.values[k] = slices.Clone(v)
	}
	return out
}

// Equal reports whether both objects hold the same keys, order and values.
func (o Object) Equal(other Object) bool {
	if !slices.Equal(o.keys, other.keys) {
		return false
	}
	for _, key := range o.keys {
		if !bytes.Equal(o.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}

func canonicalValue(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []byte("null"), nil
	}
	if trimmed[0] != '"' {
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return nil, err
		}
		return compact.Bytes(), nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return marshalString(s)
}

func marshalString(s string) ([]byte, error) {
	return marshalValue(s)
}

func marshalValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
