package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tradecomply/backend/internal/domain/shared"
)

const cleanupInterval = 5 * time.Minute

// MemoryIdempotencyStore keeps processed keys in a map. State is local to
// the process, so it only deduplicates redeliveries of the in-process pool.
type MemoryIdempotencyStore struct {
	mu        sync.RWMutex
	expiresAt map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewMemoryIdempotencyStore creates a store and starts its expiry sweeper
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	s := &MemoryIdempotencyStore{
		expiresAt: make(map[string]time.Time),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.cleanupLoop()
	return s
}

// MarkProcessed implements shared.IdempotencyStore
func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiresAt[key]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiresAt[key] = now.Add(ttl)
	return true, nil
}

// IsProcessed implements shared.IdempotencyStore
func (s *MemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exp, ok := s.expiresAt[key]
	return ok && s.now().Before(exp), nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *MemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of remembered keys, expired or not
func (s *MemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.expiresAt)
}

func (s *MemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryIdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.expiresAt {
		if !now.Before(exp) {
			delete(s.expiresAt, key)
		}
	}
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
