// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package syncmap provides a generic version of [sync.Map].
package syncmap

import "sync"

// Map is a concurrent map of K to V. Values must be comparable for
// [Map.CompareAndDelete] to work, like with [sync.Map].
type Map[K comparable, V any] struct {
	m sync.Map
}

// NewMap returns a new [Map].
func NewMap[K comparable, V any]() *Map[K, V] { return new(Map[K, V]) }

// Load returns the value stored for key, if any.
func (m *Map[K, V]) Load(key K) (value V, ok bool) {
	v, ok := m.m.Load(key)
	return as[V](v), ok
}

// Store sets the value for key.
func (m *Map[K, V]) Store(key K, value V) { m.m.Store(key, value) }

// LoadAndDelete deletes the value for key, returning the previous value if
// any.
func (m *Map[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	v, loaded := m.m.LoadAndDelete(key)
	return as[V](v), loaded
}

// Swap stores value for key and returns the previous value, if any.
func (m *Map[K, V]) Swap(key K, value V) (previous V, loaded bool) {
	v, loaded := m.m.Swap(key, value)
	return as[V](v), loaded
}

// CompareAndDelete deletes the entry for key if its value is old.
func (m *Map[K, V]) CompareAndDelete(key K, old V) (deleted bool) {
	return m.m.CompareAndDelete(key, old)
}

// Delete deletes the value for key.
func (m *Map[K, V]) Delete(key K) { m.m.Delete(key) }

// Range calls f for each entry until f returns false. It doesn't take a
// consistent snapshot, see [sync.Map.Range].
func (m *Map[K, V]) Range(f func(key K, value V) bool) {
	m.m.Range(func(k, v any) bool { return f(as[K](k), as[V](v)) })
}

// Len returns the number of entries. Like Range, it doesn't take a
// consistent snapshot.
func (m *Map[K, V]) Len() int {
	var n int
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// as converts v stored in the map back to T. A nil v means no entry.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	t, ok := v.(T)
	if !ok {
		panic("syncmap: inconsistent map state: unexpected type")
	}
	return t
}
