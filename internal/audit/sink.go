// Package audit defines the append-only execution record sink.
package audit

import (
	"context"
	"errors"
	"sync"

	"vault-sentinel/internal/model"
)

// ErrAlreadyRecorded signals that a record with the same proposal hash
// exists. The executor treats it as "already recorded, do not re-execute".
var ErrAlreadyRecorded = errors.New("execution record already exists")

// Sink is the audit boundary: append-only, duplicate proposal hashes are
// rejected. Records are never mutated or deleted.
type Sink interface {
	Append(ctx context.Context, record model.ExecutionRecord) error
	Records(ctx context.Context, vault string) ([]model.ExecutionRecord, error)
}

// MemorySink keeps records in process memory, for unit tests and demo runs.
type MemorySink struct {
	mu      sync.RWMutex
	byHash  map[string]model.ExecutionRecord
	ordered []model.ExecutionRecord
}

func NewMemorySink() *MemorySink {
	return &MemorySink{
		byHash: make(map[string]model.ExecutionRecord),
	}
}

func (s *MemorySink) Append(ctx context.Context, record model.ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHash[record.ProposalHash]; exists {
		return ErrAlreadyRecorded
	}

	s.byHash[record.ProposalHash] = record
	s.ordered = append(s.ordered, record)
	return nil
}

func (s *MemorySink) Records(ctx context.Context, vault string) ([]model.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []model.ExecutionRecord
	for _, record := range s.ordered {
		if vault == "" || record.Vault == vault {
			records = append(records, record)
		}
	}
	return records, nil
}
