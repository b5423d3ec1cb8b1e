package tmpl

import (
	"iter"
	"slices"
	"strings"
)

// Map is a string-keyed mapping that remembers insertion order.
//
// Template data decoded from YAML or built programmatically is stored in a
// Map so that foreach over a mapping visits keys in the order they were
// written. A nil *Map behaves as an empty, read-only mapping.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns a Map populated from alternating key/value pairs.
// It panics if a key is not a string or a value is missing.
func NewMap(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("tmpl: NewMap called with odd number of arguments")
	}

	m := &Map{vals: make(map[string]any, len(kv)/2)}

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("tmpl: NewMap key is not a string")
		}

		m.Set(key, kv[i+1])
	}

	return m
}

// Set assigns value to key. A new key is appended to the key order;
// an existing key keeps its position.
func (m *Map) Set(key string, value any) *Map {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}

	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.vals[key] = value

	return m
}

// Get returns the value bound to key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.vals[key]

	return v, ok
}

// Delete removes key, if present.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}

	if _, ok := m.vals[key]; !ok {
		return
	}

	delete(m.vals, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// All iterates over key/value pairs in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of m.
func (m *Map) Clone() *Map {
	out := &Map{vals: make(map[string]any, m.Len())}

	for k, v := range m.All() {
		out.Set(k, v)
	}

	return out
}

func (m *Map) String() string {
	var sb strings.Builder

	writeValue(&sb, m)

	return sb.String()
}
