package settings

import "sync"

// Storage persists setting values by canonical name. The dispatch
// engine only needs get/put/erase and a usage summary.
type Storage interface {
	Get(name string) (string, bool)
	Put(name, value string) error
	Erase() error
	Stats() (used, capacity int)
}

// MemStorage is an in-memory Storage, used standalone and in tests.
type MemStorage struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStorage returns an empty in-memory store.
func NewMemStorage() *MemStorage {
	return &MemStorage{m: make(map[string]string)}
}

func (s *MemStorage) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[name]
	return v, ok
}

func (s *MemStorage) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[name] = value
	return nil
}

func (s *MemStorage) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[string]string)
	return nil
}

func (s *MemStorage) Stats() (used, capacity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m), 0
}
