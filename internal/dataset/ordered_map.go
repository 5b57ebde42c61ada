package dataset

import (
	"cmp"
	"sort"
)

// OrderedMap is a map that remembers insertion order.
// Set on an existing key replaces the value but keeps the original position.
//
// NOT THREAD-SAFE: callers own the instance.
type OrderedMap[K cmp.Ordered, V any] struct {
	keys   []K
	values map[K]V
}

// NewOrderedMap creates an empty ordered map with initial capacity
func NewOrderedMap[K cmp.Ordered, V any](capacity int) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{
		keys:   make([]K, 0, capacity),
		values: make(map[K]V, capacity),
	}
}

// Set stores value under key
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries
func (m *OrderedMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order
func (m *OrderedMap[K, V]) Keys() []K {
	out := make([]K, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in key order
func (m *OrderedMap[K, V]) Values() []V {
	out := make([]V, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// Range calls fn for every entry in order until fn returns false
func (m *OrderedMap[K, V]) Range(fn func(key K, value V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// SortStableBy reorders entries with a stable sort; less receives two keys.
func (m *OrderedMap[K, V]) SortStableBy(less func(a, b K) bool) {
	sort.SliceStable(m.keys, func(i, j int) bool {
		return less(m.keys[i], m.keys[j])
	})
}

// SortByKey reorders entries ascending by key
func (m *OrderedMap[K, V]) SortByKey() {
	sort.SliceStable(m.keys, func(i, j int) bool {
		return m.keys[i] < m.keys[j]
	})
}

// Clone returns an independent copy (values are copied shallowly)
func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	out := NewOrderedMap[K, V](len(m.keys))
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}
