// Package ordered provides an insertion-ordered map whose positions double as
// stable glTF array indices.
package ordered

import (
	"bytes"
	"iter"

	json "github.com/goccy/go-json"
)

// Map keeps values in first-insertion order and resolves keys to their
// zero-based position. The zero value is ready to use. Not safe for
// concurrent use.
type Map[K ~string, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

// New returns an empty map.
func New[K ~string, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// Add inserts key at the end and returns its position. If the key already
// exists the stored value is left untouched and added is false.
func (m *Map[K, V]) Add(key K, value V) (idx int, added bool) {
	if i, ok := m.index[key]; ok {
		return i, false
	}
	if m.index == nil {
		m.index = make(map[K]int)
	}
	idx = len(m.keys)
	m.index[key] = idx
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return idx, true
}

// Set inserts or replaces the value for key, keeping an existing position.
func (m *Map[K, V]) Set(key K, value V) int {
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return i
	}
	idx, _ := m.Add(key, value)
	return idx
}

// Index returns the position of key.
func (m *Map[K, V]) Index(key K) (int, bool) {
	i, ok := m.index[key]
	return i, ok
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return m.values[i], true
}

// At returns the entry at position i. It panics if i is out of range, like a
// slice index.
func (m *Map[K, V]) At(i int) (K, V) {
	return m.keys[i], m.values[i]
}

// Delete removes key and shifts later entries down by one position.
func (m *Map[K, V]) Delete(key K) bool {
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K {
	return append([]K(nil), m.keys...)
}

// Values returns the values in insertion order.
func (m *Map[K, V]) Values() []V {
	return append([]V(nil), m.values...)
}

// All iterates entries in insertion order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.values[i]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *Map[K, V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(string(k))
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
