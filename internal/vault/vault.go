// Package vault is a minimal in-memory implementation of the vault action
// boundary, enough to give the executor's effect step substance in the demo
// binary. Real deployments replace it with an on-chain adapter.
package vault

import (
	"context"
	"errors"
	"sync"

	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/model"

	"go.uber.org/zap"
)

type Registry struct {
	logger *zap.Logger

	mu       sync.Mutex
	balances map[string]uint64
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		logger:   logger,
		balances: make(map[string]uint64),
	}
}

// SetBalance seeds the balance of a vault.
func (r *Registry) SetBalance(vault string, balance uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[vault] = balance
}

func (r *Registry) Balance(vault string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[vault]
}

// ExecuteAction applies the action to the tracked balance. The action fully
// succeeds or fully fails.
func (r *Registry) ExecuteAction(ctx context.Context, vault string, actionType model.ActionType, params []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch actionType {
	case model.ActionSwap:
		swap, err := codec.DecodeSwapParams(params)
		if err != nil {
			return err
		}
		if swap.TradeAmount > r.balances[vault] {
			return errors.New("insufficient vault balance for the swap")
		}
		// a swap exchanges one asset for another, the tracked total is kept
		r.logger.Debug("swap executed",
			zap.String("vault", vault),
			zap.String("venue", swap.Venue),
			zap.Uint64("tradeAmount", swap.TradeAmount))
		return nil

	case model.ActionLend:
		transfer, err := codec.DecodeTransferParams(params)
		if err != nil {
			return err
		}
		if transfer.Amount > r.balances[vault] {
			return errors.New("insufficient vault balance to lend")
		}
		r.balances[vault] -= transfer.Amount
		return nil

	case model.ActionBorrow:
		transfer, err := codec.DecodeTransferParams(params)
		if err != nil {
			return err
		}
		r.balances[vault] += transfer.Amount
		return nil

	case model.ActionEmergencyWithdraw:
		r.balances[vault] = 0
		r.logger.Warn("emergency withdraw executed", zap.String("vault", vault))
		return nil

	default:
		return errors.New("action not implemented by the demo vault: " + actionType.String())
	}
}
