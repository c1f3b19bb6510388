package blob

import (
	"context"
	"io"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "/uploads/"
	}
	return &MemoryStore{objects: make(map[string][]byte), baseURL: baseURL}
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, key, _ string, content io.Reader) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyBytes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return s.baseURL + key, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Get returns stored bytes, for test assertions.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
