package storage

// Storage defines interface for keyed in-memory object storage
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	ForEach(fn func(key K, value V) bool)
	Count() int
}
