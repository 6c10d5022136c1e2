package storage

import (
	"sync"
)

// MemoryStorage - in-memory object storage that remembers insertion order
// K - key type, V - stored object type
type MemoryStorage[K comparable, V any] struct {
	data  map[K]V
	order []K
	mutex sync.RWMutex
}

// NewMemoryStorage creates a new storage
func NewMemoryStorage[K comparable, V any]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data: make(map[K]V),
	}
}

// Set adds or updates an object. An updated key keeps its original position.
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		s.order = append(s.order, key)
	}
	s.data[key] = value
}

// ForEach executes a function for each object in insertion order
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy keys and values under lock for subsequent processing
	s.mutex.RLock()
	keys := make([]K, len(s.order))
	copy(keys, s.order)
	values := make([]V, len(keys))
	for i, k := range keys {
		values[i] = s.data[k]
	}
	s.mutex.RUnlock()

	// Process copied data without locking
	for i, k := range keys {
		if !fn(k, values[i]) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
