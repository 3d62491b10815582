package executor

import (
	"context"
	"errors"
	"sync"
)

// ErrNonceUsed signals that the nonce key has already been consumed.
var ErrNonceUsed = errors.New("nonce already used")

// NonceStore tracks consumed nonce keys. Consume must be atomic: two
// concurrent calls for the same key must not both succeed. Release exists
// only for the storage failure rollback before any effect was attempted.
type NonceStore interface {
	Consume(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
}

// MemoryNonceStore keeps consumed keys in process memory.
type MemoryNonceStore struct {
	mu   sync.Mutex
	used map[string]struct{}
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{used: make(map[string]struct{})}
}

func (s *MemoryNonceStore) Consume(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, used := s.used[key]; used {
		return ErrNonceUsed
	}
	s.used[key] = struct{}{}
	return nil
}

func (s *MemoryNonceStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.used, key)
	return nil
}
