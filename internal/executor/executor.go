// Package executor implements the authoritative verification state machine:
// a signed proposal either passes every check and produces exactly one
// effect plus one audit record, or it is rejected with a typed reason.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"vault-sentinel/internal/audit"
	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"
	"vault-sentinel/internal/signkeys"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Status string

const (
	StatusExecuted Status = "Executed"
	StatusRejected Status = "Rejected"
)

// Outcome is the terminal result of one Process call. Rejections carry the
// reason code; they are expected results, not errors.
type Outcome struct {
	Status   Status
	RecordID string
	Reason   model.Reason
	Detail   string
}

// VaultActions is the effect boundary. An action either fully succeeds or
// fully fails; the executor never sees partial effects.
type VaultActions interface {
	ExecuteAction(ctx context.Context, vault string, actionType model.ActionType, params []byte) error
}

type Executor struct {
	logger   *zap.Logger
	identity string

	policies *policy.Manager
	nonces   NonceStore
	vaults   VaultActions
	sink     audit.Sink

	maxDeadlineWindow time.Duration

	// registered agent identity; the null identity rejects everything
	signerMu    sync.RWMutex
	agentSigner string

	sequence uint64
}

func New(logger *zap.Logger, identity string, agentSigner string, policies *policy.Manager, nonces NonceStore, vaults VaultActions, sink audit.Sink, maxDeadlineWindow time.Duration) *Executor {
	return &Executor{
		logger:            logger,
		identity:          identity,
		agentSigner:       agentSigner,
		policies:          policies,
		nonces:            nonces,
		vaults:            vaults,
		sink:              sink,
		maxDeadlineWindow: maxDeadlineWindow,
	}
}

// RegisteredSigner returns the agent identity currently accepted by the
// signature check.
func (e *Executor) RegisteredSigner() string {
	e.signerMu.RLock()
	defer e.signerMu.RUnlock()
	return e.agentSigner
}

// EmergencyPause invalidates the registered agent signer. Every proposal
// verified from this point on fails the signature check, including attempts
// already in flight: the signer is re-read under the lock on each check.
func (e *Executor) EmergencyPause() {
	e.signerMu.Lock()
	e.agentSigner = signkeys.NullIdentity
	e.signerMu.Unlock()

	e.logger.Warn("emergency pause engaged, all proposals will be rejected")
}

// EmergencyUnpause restores service under a new agent identity.
func (e *Executor) EmergencyUnpause(newSigner string) error {
	if newSigner == "" || newSigner == signkeys.NullIdentity {
		return errors.New("cannot unpause with an empty signer identity")
	}

	e.signerMu.Lock()
	e.agentSigner = newSigner
	e.signerMu.Unlock()

	e.logger.Info("emergency pause lifted", zap.String("agentSigner", newSigner))
	return nil
}

// Process runs the transition checks in order, short circuiting on the
// first failure: deadline, signature, replay, policy, then the effect and
// the audit write. The returned error is non-nil only for storage failures;
// those are fatal for the request, not for the process.
func (e *Executor) Process(ctx context.Context, proposal model.Proposal, signature []byte) (Outcome, error) {
	now := time.Now()

	// 1. deadline: strictly in the future and not absurdly far out
	if !proposal.Deadline.After(now) || proposal.Deadline.After(now.Add(e.maxDeadlineWindow)) {
		return e.reject(proposal, model.ReasonDeadlineInvalid, "deadline outside the allowed window"), nil
	}

	// 2. signature: recover the signer and compare against the registered
	// agent identity
	digest := codec.Hash(proposal)
	recovered, err := signkeys.Recover(digest, signature)
	if err != nil {
		return e.reject(proposal, model.ReasonInvalidSignature, err.Error()), nil
	}
	registered := e.RegisteredSigner()
	if registered == signkeys.NullIdentity || recovered != registered {
		return e.reject(proposal, model.ReasonInvalidSignature, "signer is not the registered agent"), nil
	}

	// 3. replay: mark the nonce used before attempting the effect, so a
	// failed effect never frees it for reuse
	nonceKey := fmt.Sprintf("%s:%d", recovered, proposal.Nonce)
	if err := e.nonces.Consume(ctx, nonceKey); err != nil {
		if errors.Is(err, ErrNonceUsed) {
			return e.reject(proposal, model.ReasonNonceReused, "nonce already consumed"), nil
		}
		return Outcome{}, errors.New("nonce store failure: " + err.Error())
	}

	// 4. policy
	violation, err := e.policies.ValidateAction(ctx, e.identity, proposal.Vault, proposal.ActionType, proposal.Params)
	if err != nil {
		// the policy lookup failed before any effect: release the nonce so
		// the same proposal stays resubmittable
		if releaseErr := e.nonces.Release(ctx, nonceKey); releaseErr != nil {
			e.logger.Error("failed to release the nonce after a policy store failure",
				zap.String("nonceKey", nonceKey), zap.Error(releaseErr))
		}
		return Outcome{}, errors.New("policy store failure: " + err.Error())
	}
	if violation != nil {
		return e.reject(proposal, violation.Reason, violation.Detail), nil
	}

	// 5. effect + audit record
	if err := e.vaults.ExecuteAction(ctx, proposal.Vault, proposal.ActionType, proposal.Params); err != nil {
		// the nonce stays consumed: the effect outcome is unknown
		return Outcome{}, errors.New("vault action failure: " + err.Error())
	}

	record := model.ExecutionRecord{
		RecordID:         uuid.NewString(),
		ProposalHash:     codec.HashHex(proposal),
		Vault:            proposal.Vault,
		ExecutorIdentity: e.identity,
		ActionType:       proposal.ActionType,
		Params:           proposal.Params,
		ContentHash:      proposal.ContentHash,
		Timestamp:        now,
		SequenceNumber:   atomic.AddUint64(&e.sequence, 1),
	}

	if err := e.sink.Append(ctx, record); err != nil {
		if errors.Is(err, audit.ErrAlreadyRecorded) {
			// the hash was logged before; keep the audit trail intact and
			// report success without a second record
			e.logger.Warn("proposal hash already recorded",
				zap.String("proposalHash", record.ProposalHash),
				zap.String("vault", proposal.Vault))
			return Outcome{Status: StatusExecuted}, nil
		}
		// effect done, record lost: surface the storage failure, keep the
		// nonce consumed so the effect cannot repeat
		return Outcome{}, errors.New("audit sink failure: " + err.Error())
	}

	e.logger.Info("proposal executed",
		zap.String("vault", proposal.Vault),
		zap.Uint64("nonce", proposal.Nonce),
		zap.String("actionType", proposal.ActionType.String()),
		zap.String("recordID", record.RecordID))

	return Outcome{Status: StatusExecuted, RecordID: record.RecordID}, nil
}

func (e *Executor) reject(proposal model.Proposal, reason model.Reason, detail string) Outcome {
	e.logger.Info("proposal rejected",
		zap.String("vault", proposal.Vault),
		zap.Uint64("nonce", proposal.Nonce),
		zap.String("actionType", proposal.ActionType.String()),
		zap.String("reason", string(reason)),
		zap.String("detail", detail))

	return Outcome{Status: StatusRejected, Reason: reason, Detail: detail}
}
