package resource

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

// PropertyMap is an ordered set of resource properties. Values are one of
// string, bool, int64, float64, []any, map[string]any or nil.
type PropertyMap struct {
	keys   []string
	values map[string]any
}

// NewPropertyMap creates an empty property map
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{
		values: make(map[string]any),
	}
}

// Set sets key to value, keeping the position of an existing key
func (p *PropertyMap) Set(key string, value any) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Delete removes key
func (p *PropertyMap) Delete(key string) {
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Merge applies all entries of o over p. Nested arrays and objects are
// copied, p never shares them with o.
func (p *PropertyMap) Merge(o *PropertyMap) {
	if o == nil {
		return
	}
	o.Each(func(key string, value any) {
		p.Set(key, cloneValue(value))
	})
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	case map[string]any:
		c := make(map[string]any, len(v))
		for k, e := range v {
			c[k] = cloneValue(e)
		}
		return c
	default:
		return value
	}
}

// Get returns the value of key
func (p *PropertyMap) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value of key if it is a string
func (p *PropertyMap) String(key string) (string, bool) {
	v, ok := p.values[key].(string)
	return v, ok
}

// Bool returns the value of key if it is a boolean
func (p *PropertyMap) Bool(key string) (bool, bool) {
	v, ok := p.values[key].(bool)
	return v, ok
}

// Int64 returns the value of key if it is an integer
func (p *PropertyMap) Int64(key string) (int64, bool) {
	v, ok := p.values[key].(int64)
	return v, ok
}

// Float64 returns the value of key as a float if it is numeric
func (p *PropertyMap) Float64(key string) (float64, bool) {
	switch v := p.values[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Strings returns the value of key if it is an array of strings
func (p *PropertyMap) Strings(key string) ([]string, bool) {
	arr, ok := p.values[key].([]any)
	if !ok {
		return nil, false
	}
	res := make([]string, 0, len(arr))
	for _, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		res = append(res, s)
	}
	return res, true
}

// Keys returns the property names in order
func (p *PropertyMap) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of properties
func (p *PropertyMap) Len() int {
	return len(p.keys)
}

// Each calls fn for every property in order
func (p *PropertyMap) Each(fn func(key string, value any)) {
	for _, k := range p.keys {
		fn(k, p.values[k])
	}
}

// MarshalJSON encodes the properties as a JSON object in order
func (p *PropertyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "cannot encode property %s", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// OverlayError reports a malformed sidecar document
type OverlayError struct {
	Path string
	Err  error
}

func (e *OverlayError) Error() string {
	return fmt.Sprintf("cannot parse sidecar %s: %v", e.Path, e.Err)
}

func (e *OverlayError) Unwrap() error {
	return e.Err
}

// ParseOverlay parses a sidecar document. Comments and trailing commas are
// accepted. The top level must be an object; its key order is preserved.
func ParseOverlay(data []byte) (*PropertyMap, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read document")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Errorf("document is not an object")
	}

	props := NewPropertyMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "cannot read property name")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.Errorf("unexpected token %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrapf(err, "cannot read property %s", key)
		}
		props.Set(key, normalize(raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, errors.Wrap(err, "cannot read end of document")
	}
	if dec.More() {
		return nil, errors.New("trailing data after document")
	}
	return props, nil
}

// normalize converts decoded JSON numbers to int64 or float64
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	default:
		return v
	}
}
