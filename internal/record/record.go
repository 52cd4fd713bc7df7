// Package record defines the ordered key/value record produced by every source.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one scraped item. Keys keep insertion order; values are either a
// string or a list of strings.
type Record struct {
	keys []string
	vals map[string]any
}

// New builds a Record from alternating key/value strings.
func New(pairs ...string) Record {
	var r Record
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

// Set stores a string value. An existing key keeps its position.
func (r *Record) Set(key, value string) {
	r.put(key, value)
}

// SetList stores a list value. A nil list is stored as an empty one.
func (r *Record) SetList(key string, values []string) {
	if values == nil {
		values = []string{}
	}
	r.put(key, append([]string(nil), values...))
}

// SetDefault stores value only when key is absent and reports whether it did.
func (r *Record) SetDefault(key, value string) bool {
	if r.Has(key) {
		return false
	}
	r.put(key, value)
	return true
}

func (r *Record) put(key string, value any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = value
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r.vals[key]
	return ok
}

// Get returns the string value for key. List values are not returned.
func (r Record) Get(key string) (string, bool) {
	v, ok := r.vals[key].(string)
	return v, ok
}

// String returns the string value for key or "".
func (r Record) String(key string) string {
	v, _ := r.Get(key)
	return v
}

// List returns the list value for key or nil.
func (r Record) List(key string) []string {
	v, _ := r.vals[key].([]string)
	return v
}

// Keys returns the keys in insertion order.
func (r Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of keys.
func (r Record) Len() int {
	return len(r.keys)
}

// Delete removes key if present.
func (r *Record) Delete(key string) {
	if !r.Has(key) {
		return
	}
	delete(r.vals, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	var out Record
	for _, k := range r.keys {
		switch v := r.vals[k].(type) {
		case []string:
			out.SetList(k, v)
		case string:
			out.Set(k, v)
		}
	}
	return out
}

// Cell renders the value for key as a flat string. Lists are encoded as a
// JSON array; missing keys render empty.
func (r Record) Cell(key string) string {
	switch v := r.vals[key].(type) {
	case string:
		return v
	case []string:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return ""
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n"))
	default:
		return ""
	}
}

// Map returns an unordered copy of the record, useful for JSONB columns.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.keys))
	for _, k := range r.keys {
		out[k] = r.vals[k]
	}
	return out
}

// MarshalJSON encodes the record as an object with keys in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, r.vals[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode record value: %w", err)
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// UnmarshalJSON decodes an object, keeping document key order. Values must be
// strings, string arrays, or null (stored as "").
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode record: expected object, got %v", tok)
	}
	*r = Record{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode record key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode record: unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode record value %q: %w", key, err)
		}
		if err := r.decodeValue(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func (r *Record) decodeValue(key string, raw json.RawMessage) error {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		r.Set(key, "")
	case len(trimmed) > 0 && trimmed[0] == '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode record list %q: %w", key, err)
		}
		r.SetList(key, list)
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode record string %q: %w", key, err)
		}
		r.Set(key, s)
	default:
		// Numbers and booleans keep their literal text.
		r.Set(key, string(trimmed))
	}
	return nil
}
