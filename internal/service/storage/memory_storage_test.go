package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(s *MemoryStorage[string, int]) ([]string, []int) {
	var keys []string
	var values []int
	s.ForEach(func(key string, value int) bool {
		keys = append(keys, key)
		values = append(values, value)
		return true
	})
	return keys, values
}

func TestMemoryStorageKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStorage[string, int]()
	s.Set("b", 1)
	s.Set("a", 2)
	s.Set("c", 3)
	s.Set("b", 4)

	assert.Equal(t, 3, s.Count())

	keys, values := collect(s)
	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Equal(t, []int{4, 2, 3}, values)
}

func TestMemoryStorageForEachStops(t *testing.T) {
	s := NewMemoryStorage[string, int]()
	s.Set("b", 1)
	s.Set("a", 2)
	s.Set("c", 3)

	var keys []string
	s.ForEach(func(key string, _ int) bool {
		keys = append(keys, key)
		return key != "a"
	})
	assert.Equal(t, []string{"b", "a"}, keys)
}

func TestMemoryStorageEmpty(t *testing.T) {
	s := NewMemoryStorage[string, int]()
	assert.Equal(t, 0, s.Count())

	keys, values := collect(s)
	assert.Empty(t, keys)
	assert.Empty(t, values)
}
