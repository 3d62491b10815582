// Package agent implements the off-chain signer: it turns an intended
// vault action into a fully formed, signed proposal.
package agent

import (
	"errors"
	"sync"
	"time"

	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/signkeys"

	"go.uber.org/zap"
)

type Signer struct {
	logger *zap.Logger
	keys   signkeys.AgentKeys

	minDeadlineOffset time.Duration
	maxDeadlineOffset time.Duration

	// per-vault nonce counters, guarded by mu. The counters live in process
	// memory only: a restart starts over at zero and may hand out nonces the
	// executor has already consumed. A production deployment has to persist
	// them or rotate the agent key on restart.
	mu       sync.Mutex
	counters map[string]uint64
}

func NewSigner(logger *zap.Logger, keys signkeys.AgentKeys, minDeadlineOffset, maxDeadlineOffset time.Duration) (*Signer, error) {
	if keys.PrivateKey == nil {
		return nil, errors.New("signer requires private key material")
	}
	if minDeadlineOffset <= 0 || maxDeadlineOffset < minDeadlineOffset {
		return nil, errors.New("invalid deadline offset window")
	}

	return &Signer{
		logger:            logger,
		keys:              keys,
		minDeadlineOffset: minDeadlineOffset,
		maxDeadlineOffset: maxDeadlineOffset,
		counters:          make(map[string]uint64),
	}, nil
}

// Identity returns the public identity the executor should register.
func (s *Signer) Identity() string {
	return s.keys.Identity()
}

// NextNonce advances the counter for the vault and returns the new value.
// Counters start at zero, so the first nonce handed out is 1. Values never
// repeat and never decrease for a given signer process.
func (s *Signer) NextNonce(vault string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[vault]++
	return s.counters[vault]
}

// CreateProposal stamps a fresh nonce and a deadline bounded to the
// configured window. An offset outside the window is clipped, not rejected.
func (s *Signer) CreateProposal(vault string, actionType model.ActionType, params []byte, contentHash string, deadlineOffset time.Duration) model.Proposal {
	if deadlineOffset < s.minDeadlineOffset {
		deadlineOffset = s.minDeadlineOffset
	}
	if deadlineOffset > s.maxDeadlineOffset {
		deadlineOffset = s.maxDeadlineOffset
	}

	proposal := model.Proposal{
		Vault:       vault,
		ActionType:  actionType,
		Params:      params,
		ContentHash: contentHash,
		Nonce:       s.NextNonce(vault),
		Deadline:    time.Now().Add(deadlineOffset),
	}

	s.logger.Debug("created a proposal",
		zap.String("vault", vault),
		zap.String("actionType", actionType.String()),
		zap.Uint64("nonce", proposal.Nonce))

	return proposal
}

// Sign computes the proposal digest and signs it with the agent key.
func (s *Signer) Sign(proposal model.Proposal) []byte {
	return signkeys.Sign(s.keys.PrivateKey, codec.Hash(proposal))
}

// Verify is a self check: it recomputes the digest, recovers the signing
// identity and compares it against this signer's own.
func (s *Signer) Verify(proposal model.Proposal, signature []byte) bool {
	recovered, err := signkeys.Recover(codec.Hash(proposal), signature)
	if err != nil {
		return false
	}
	return recovered == s.Identity()
}
