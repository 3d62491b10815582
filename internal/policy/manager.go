package policy

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/model"

	"go.uber.org/zap"
)

// Violation is a failed validation outcome. It is an expected result, not an
// error: the caller maps it to a rejection reason and moves on.
type Violation struct {
	Reason model.Reason
	Detail string
}

// Manager wraps a Store with the versioning rules and the per-action
// validation predicate.
type Manager struct {
	logger *zap.Logger
	store  Store

	// callers allowed to validate actions; empty means no capability check
	validators map[string]struct{}

	// serializes SetPolicy so two concurrent updates cannot both read the
	// same current version
	mu sync.Mutex
}

func NewManager(logger *zap.Logger, store Store, authorizedValidators []string) *Manager {
	validators := make(map[string]struct{}, len(authorizedValidators))
	for _, validator := range authorizedValidators {
		validators[validator] = struct{}{}
	}

	return &Manager{
		logger:     logger,
		store:      store,
		validators: validators,
	}
}

// SetPolicy validates the bounds, deactivates the current version and
// inserts the next one as active. Returns the stored policy.
func (m *Manager) SetPolicy(ctx context.Context, policy model.Policy) (model.Policy, error) {
	if err := policy.Validate(); err != nil {
		return model.Policy{}, fmt.Errorf("%w: %s", ErrInvalidPolicy, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	version := uint(1)
	current, err := m.store.ActivePolicy(ctx, policy.Vault)
	if err == nil {
		version = current.Version + 1
	} else if !errors.Is(err, ErrNoActivePolicy) {
		return model.Policy{}, err
	}

	policy.Version = version
	policy.Active = true
	policy.UpdatedAt = time.Now()

	if err := m.store.Replace(ctx, policy); err != nil {
		return model.Policy{}, err
	}

	m.logger.Info("policy updated",
		zap.String("vault", policy.Vault),
		zap.Uint("version", policy.Version),
		zap.Uint("maxTradePercent", policy.MaxTradePercent))

	return policy, nil
}

func (m *Manager) ActivePolicy(ctx context.Context, vault string) (model.Policy, error) {
	return m.store.ActivePolicy(ctx, vault)
}

func (m *Manager) History(ctx context.Context, vault string) ([]model.Policy, error) {
	return m.store.History(ctx, vault)
}

// ValidateAction checks the proposed action against the active policy of
// the vault. The returned Violation is nil when the action is allowed; a
// non-nil error means the policy lookup itself failed.
func (m *Manager) ValidateAction(ctx context.Context, caller, vault string, actionType model.ActionType, params []byte) (*Violation, error) {
	if len(m.validators) > 0 {
		if _, ok := m.validators[caller]; !ok {
			return &Violation{
				Reason: model.ReasonPolicyViolation,
				Detail: "caller not authorized to validate actions",
			}, nil
		}
	}

	active, err := m.store.ActivePolicy(ctx, vault)
	if errors.Is(err, ErrNoActivePolicy) {
		return &Violation{Reason: model.ReasonPolicyViolation, Detail: "no active policy"}, nil
	}
	if err != nil {
		return nil, err
	}

	switch actionType {
	case model.ActionSwap:
		swap, err := codec.DecodeSwapParams(params)
		if err != nil {
			return &Violation{Reason: model.ReasonPolicyViolation, Detail: err.Error()}, nil
		}
		if !active.VenueAllowed(swap.Venue) {
			return &Violation{
				Reason: model.ReasonPolicyViolation,
				Detail: "venue not whitelisted: " + swap.Venue,
			}, nil
		}
		return m.checkTradeCap(active, swap.TradeAmount, swap.VaultBalance), nil

	case model.ActionLend, model.ActionBorrow:
		transfer, err := codec.DecodeTransferParams(params)
		if err != nil {
			return &Violation{Reason: model.ReasonPolicyViolation, Detail: err.Error()}, nil
		}
		return m.checkTradeCap(active, transfer.Amount, transfer.VaultBalance), nil

	default:
		// unknown or not yet supported actions are never implicitly allowed
		return &Violation{
			Reason: model.ReasonUnsupportedAction,
			Detail: "unsupported action type: " + actionType.String(),
		}, nil
	}
}

// checkTradeCap bounds the trade size as a percentage of the vault balance.
// The comparison is done as amount*100 > maxTradePercent*balance in 128 bits,
// so a trade a single unit over the cap is rejected without overflow.
func (m *Manager) checkTradeCap(policy model.Policy, amount, balance uint64) *Violation {
	if balance == 0 {
		return &Violation{Reason: model.ReasonPolicyViolation, Detail: "vault balance is zero"}
	}

	amountHi, amountLo := bits.Mul64(amount, 100)
	capHi, capLo := bits.Mul64(balance, uint64(policy.MaxTradePercent))

	if amountHi > capHi || (amountHi == capHi && amountLo > capLo) {
		return &Violation{
			Reason: model.ReasonPolicyViolation,
			Detail: fmt.Sprintf("trade size exceeds %d%% of the vault balance", policy.MaxTradePercent),
		}
	}
	return nil
}
