package heap

import (
	"github.com/deepnoodle-ai/jsbox/value"
)

// PropertyMap is a string-keyed map that remembers insertion order. The
// zero value is an empty map ready to use.
type PropertyMap struct {
	keys   []string
	values []value.Value
	index  map[string]int
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	return len(m.keys)
}

// Get returns the value stored under key.
func (m *PropertyMap) Get(key string) (value.Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return value.Undefined(), false
	}
	return m.values[i], true
}

// Has reports whether key is present.
func (m *PropertyMap) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Set stores v under key. New keys are appended to the iteration order;
// existing keys keep their position.
func (m *PropertyMap) Set(key string, v value.Value) {
	if i, ok := m.index[key]; ok {
		m.values[i] = v
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, v)
}

// Delete removes key and reports whether it was present.
func (m *PropertyMap) Delete(key string) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	delete(m.index, key)
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Keys returns the property names in insertion order.
func (m *PropertyMap) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Range calls fn for each property in insertion order until fn returns
// false.
func (m *PropertyMap) Range(fn func(key string, v value.Value) bool) {
	for i, k := range m.keys {
		if !fn(k, m.values[i]) {
			return
		}
	}
}

func (m *PropertyMap) size() int {
	n := 24 * len(m.keys)
	for _, k := range m.keys {
		n += len(k)
	}
	return n
}

func (m *PropertyMap) trace(mark func(value.Value)) {
	for _, v := range m.values {
		mark(v)
	}
}
