package articles

import (
	"bytes"
	"encoding/json"
)

// Encode renders v the way mirror files are stored: two-space indentation,
// no HTML escaping, non-ASCII characters kept as-is, no trailing newline.
func Encode(v any) ([]byte, error) {
	compact, err := marshalValue(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
