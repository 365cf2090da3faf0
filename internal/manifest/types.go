package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Manifest is a parsed package.json
type Manifest struct {
	Name   string
	fields map[string]json.RawMessage
}

// Has reports whether key is present in the manifest
func (m *Manifest) Has(key string) bool {
	_, ok := m.fields[key]
	return ok
}

// Raw returns the normalized JSON value stored under key
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// String returns the value under key when it is a JSON string
func (m *Manifest) String(key string) (string, bool) {
	raw, ok := m.fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Keys returns the manifest's top-level keys, sorted
func (m *Manifest) Keys() []string {
	keys := make([]string, 0, len(m.fields))
	for k := range m.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PublishDirectory returns publishConfig.directory, or "" when unset
func (m *Manifest) PublishDirectory() string {
	raw, ok := m.fields["publishConfig"]
	if !ok {
		return ""
	}
	var pc struct {
		Directory string `json:"directory"`
	}
	if err := json.Unmarshal(raw, &pc); err != nil {
		return ""
	}
	return pc.Directory
}

// Object is a JSON object that keeps keys in insertion order.
// Setting an existing key replaces its value in place.
type Object struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewObject creates an empty Object
func NewObject() *Object {
	return &Object{values: make(map[string]json.RawMessage)}
}

// SetRaw stores an already encoded JSON value
func (o *Object) SetRaw(key string, value json.RawMessage) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Set encodes value and stores it under key
func (o *Object) Set(key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	o.SetRaw(key, raw)
	return nil
}

// Get returns the encoded value stored under key
func (o *Object) Get(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

// GetString returns the value under key when it is a JSON string
func (o *Object) GetString(key string) (string, bool) {
	raw, ok := o.values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Keys returns the keys in insertion order
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys
func (o *Object) Len() int {
	return len(o.keys)
}

// MarshalJSON implements json.Marshaler
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(o.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Subpath is the reduced manifest written into each non-root export directory
type Subpath struct {
	Name        string `json:"name"`
	Main        string `json:"main"`
	Module      string `json:"module"`
	SideEffects bool   `json:"sideEffects"`
}

// Marshal renders v like JSON.stringify(v, null, 2), without a trailing
// newline.
func Marshal(v any) ([]byte, error) {
	compact, err := encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return Normalize(buf.Bytes())
}
