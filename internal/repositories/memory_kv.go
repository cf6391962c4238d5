// internal/repositories/memory_kv.go
package repositories

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryKVStore is a process-local KVStore backed by go-cache. Suitable for
// single-node deployments and tests; shared deployments use the postgres
// implementation instead.
type memoryKVStore struct {
	// mu makes Take and IncrementAndCheck atomic; go-cache is safe for
	// concurrent use but has no combined get-then-delete operation.
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewMemoryKVStore creates an in-memory store that purges expired entries
// every minute.
func NewMemoryKVStore() KVStore {
	return &memoryKVStore{
		cache: gocache.New(gocache.NoExpiration, time.Minute),
	}
}

func (s *memoryKVStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	return v.([]byte), nil
}

func (s *memoryKVStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *memoryKVStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *memoryKVStore) Take(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(key)
	if !ok {
		return nil, nil
	}
	s.cache.Delete(key)
	return v.([]byte), nil
}

func (s *memoryKVStore) IncrementAndCheck(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Add(key, 1, window); err == nil {
		return 1 <= limit, nil
	}
	count, err := s.cache.IncrementInt(key, 1)
	if err != nil {
		// The entry expired between Add and Increment; start a new window.
		s.cache.Set(key, 1, window)
		return 1 <= limit, nil
	}
	return count <= limit, nil
}
