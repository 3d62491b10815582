package policy

import (
	"context"
	"sync"

	"vault-sentinel/internal/model"
)

// MemoryStore keeps the policy history in process memory. Used by unit
// tests and by demo runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]model.Policy
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions: make(map[string][]model.Policy),
	}
}

func (s *MemoryStore) ActivePolicy(ctx context.Context, vault string) (model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, policy := range s.versions[vault] {
		if policy.Active {
			return policy, nil
		}
	}
	return model.Policy{}, ErrNoActivePolicy
}

func (s *MemoryStore) History(ctx context.Context, vault string) ([]model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]model.Policy, len(s.versions[vault]))
	copy(history, s.versions[vault])
	return history, nil
}

func (s *MemoryStore) Replace(ctx context.Context, policy model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions := s.versions[policy.Vault]
	for i := range versions {
		versions[i].Active = false
	}
	s.versions[policy.Vault] = append(versions, policy)
	return nil
}
