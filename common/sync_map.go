package common

import "sync"

// SyncMap is a thin generic wrapper around sync.Map, used wherever a
// component needs a map that is read far more often than it is written
// (page tables, lock queues indexed by oid).
type SyncMap[K comparable, V any] struct {
	m sync.Map
}

func (s *SyncMap[K, V]) Load(key K) (V, bool) {
	v, ok := s.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (s *SyncMap[K, V]) Store(key K, val V) {
	s.m.Store(key, val)
}

func (s *SyncMap[K, V]) LoadOrStore(key K, val V) (V, bool) {
	v, loaded := s.m.LoadOrStore(key, val)
	return v.(V), loaded
}

func (s *SyncMap[K, V]) Delete(key K) {
	s.m.Delete(key)
}

func (s *SyncMap[K, V]) Range(f func(key K, val V) bool) {
	s.m.Range(func(k, v any) bool {
		return f(k.(K), v.(V))
	})
}
