package slots

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store used by tests and single-node dev runs.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore builds an empty in-memory slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) key(userID, name string) string {
	return userID + ":" + name
}

func (s *MemoryStore) Get(ctx context.Context, userID, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[s.key(userID, name)]
	if !ok || s.expired(entry) {
		delete(s.entries, s.key(userID, name))
		return nil, ErrNotFound
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, userID, name string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.key(userID, name)] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: s.deadline(ttl),
	}
	return nil
}

func (s *MemoryStore) Claim(ctx context.Context, userID, name string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.key(userID, name)
	if entry, ok := s.entries[key]; ok && !s.expired(entry) {
		return false, nil
	}
	s.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: s.deadline(ttl),
	}
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, userID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, s.key(userID, name))
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}
