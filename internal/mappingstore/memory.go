package mappingstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and local development. It
// mirrors the Postgres semantics exactly: read-time expiry, sliding expiry on
// upsert, unconditional delete. Not for production use; the delivery pipeline
// assumes horizontally shared storage.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[Key]*Mapping

	// Now is overridable so expiry behavior can be tested without sleeping.
	Now func() time.Time
}

// NewMemoryStore creates an empty in-memory mapping store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[Key]*Mapping),
		Now:  time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, key Key) (*Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[key]
	if !ok || !row.ExpiresAt.After(s.Now()) {
		return nil, nil
	}

	cp := *row
	return &cp, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, key Key, rec Record, lifetimeDays int) error {
	if lifetimeDays <= 0 {
		lifetimeDays = DefaultLifetimeDays
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	createdAt := now
	if existing, ok := s.rows[key]; ok {
		createdAt = existing.CreatedAt
	}

	s.rows[key] = &Mapping{
		Key:       key,
		Record:    rec,
		CreatedAt: createdAt,
		ExpiresAt: now.Add(time.Duration(lifetimeDays) * 24 * time.Hour),
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	var count int64
	for key, row := range s.rows {
		if !row.ExpiresAt.After(now) {
			delete(s.rows, key)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored rows, live or expired.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}
