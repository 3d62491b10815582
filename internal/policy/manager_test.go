package policy_test

import (
	"context"
	"testing"

	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newManager(t *testing.T) *policy.Manager {
	t.Helper()
	return policy.NewManager(zap.NewNop(), policy.NewMemoryStore(), nil)
}

func validPolicy(vault string) model.Policy {
	return model.Policy{
		Vault:              vault,
		Owner:              "owner-1",
		RiskTolerance:      50,
		MaxTradePercent:    10,
		EmergencyThreshold: 90,
		AllowedVenues:      []string{"X"},
	}
}

func swapPayload(t *testing.T, venue string, amount, balance uint64) []byte {
	t.Helper()
	payload, err := codec.EncodeSwapParams(model.SwapParams{
		Venue:        venue,
		TradeAmount:  amount,
		VaultBalance: balance,
	})
	require.NoError(t, err)
	return payload
}

func TestSetPolicyBounds(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.Policy)
	}{
		{"riskTolerance above 100", func(p *model.Policy) { p.RiskTolerance = 101 }},
		{"maxTradePercent above 100", func(p *model.Policy) { p.MaxTradePercent = 200 }},
		{"emergencyThreshold above 100", func(p *model.Policy) { p.EmergencyThreshold = 111 }},
		{"empty venue set", func(p *model.Policy) { p.AllowedVenues = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invalid := validPolicy("vaultA")
			tt.mutate(&invalid)

			_, err := manager.SetPolicy(ctx, invalid)
			assert.ErrorIs(t, err, policy.ErrInvalidPolicy)
		})
	}
}

func TestSetPolicyVersioning(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	first, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.True(t, first.Active)

	updated := validPolicy("vaultA")
	updated.MaxTradePercent = 20
	second, err := manager.SetPolicy(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	history, err := manager.History(ctx, "vaultA")
	require.NoError(t, err)
	require.Len(t, history, 2)

	activeCount := 0
	for _, version := range history {
		if version.Active {
			activeCount++
			assert.Equal(t, uint(2), version.Version)
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestValidateActionNoPolicy(t *testing.T) {
	manager := newManager(t)

	violation, err := manager.ValidateAction(context.Background(), "", "unknown-vault",
		model.ActionSwap, swapPayload(t, "X", 1, 100))
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Equal(t, model.ReasonPolicyViolation, violation.Reason)
	assert.Equal(t, "no active policy", violation.Detail)
}

func TestValidateSwap(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	_, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)

	// exactly at the 10% cap: allowed
	violation, err := manager.ValidateAction(ctx, "", "vaultA",
		model.ActionSwap, swapPayload(t, "X", 100, 1000))
	require.NoError(t, err)
	assert.Nil(t, violation)

	// one unit above the cap: rejected
	violation, err = manager.ValidateAction(ctx, "", "vaultA",
		model.ActionSwap, swapPayload(t, "X", 101, 1000))
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Equal(t, model.ReasonPolicyViolation, violation.Reason)

	// venue off the whitelist: rejected
	violation, err = manager.ValidateAction(ctx, "", "vaultA",
		model.ActionSwap, swapPayload(t, "Y", 1, 1000))
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Contains(t, violation.Detail, "venue not whitelisted")
}

func TestValidateLendBorrow(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	_, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)

	payload, err := codec.EncodeTransferParams(model.TransferParams{Amount: 100, VaultBalance: 1000})
	require.NoError(t, err)

	for _, action := range []model.ActionType{model.ActionLend, model.ActionBorrow} {
		violation, err := manager.ValidateAction(ctx, "", "vaultA", action, payload)
		require.NoError(t, err)
		assert.Nil(t, violation, action.String())
	}

	over, err := codec.EncodeTransferParams(model.TransferParams{Amount: 101, VaultBalance: 1000})
	require.NoError(t, err)
	violation, err := manager.ValidateAction(ctx, "", "vaultA", model.ActionLend, over)
	require.NoError(t, err)
	assert.NotNil(t, violation)
}

func TestValidateUnsupportedAction(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	_, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)

	violation, err := manager.ValidateAction(ctx, "", "vaultA", model.ActionAddLiquidity, nil)
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Equal(t, model.ReasonUnsupportedAction, violation.Reason)
}

func TestValidateZeroBalance(t *testing.T) {
	manager := newManager(t)
	ctx := context.Background()

	_, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)

	violation, err := manager.ValidateAction(ctx, "", "vaultA",
		model.ActionSwap, swapPayload(t, "X", 1, 0))
	require.NoError(t, err)
	assert.NotNil(t, violation)
}

func TestValidatorCapabilityCheck(t *testing.T) {
	manager := policy.NewManager(zap.NewNop(), policy.NewMemoryStore(), []string{"executor-1"})
	ctx := context.Background()

	_, err := manager.SetPolicy(ctx, validPolicy("vaultA"))
	require.NoError(t, err)

	payload := swapPayload(t, "X", 1, 1000)

	violation, err := manager.ValidateAction(ctx, "intruder", "vaultA", model.ActionSwap, payload)
	require.NoError(t, err)
	require.NotNil(t, violation)
	assert.Contains(t, violation.Detail, "not authorized")

	violation, err = manager.ValidateAction(ctx, "executor-1", "vaultA", model.ActionSwap, payload)
	require.NoError(t, err)
	assert.Nil(t, violation)
}
