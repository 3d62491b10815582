package app

import (
	"context"
	"errors"
	"time"

	"vault-sentinel/internal/agent"
	"vault-sentinel/internal/audit"
	"vault-sentinel/internal/codec"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/executor"
	"vault-sentinel/internal/keymanager"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"

	"go.uber.org/zap"
)

// ErrNotOwner is returned when a policy update comes from an identity other
// than the vault owner recorded on the active policy.
var ErrNotOwner = errors.New("caller is not the vault owner")

const executorIdentity = "vault-sentinel-executor"

// App wires the demo agent, the policy manager and the executor into one
// pipeline behind the HTTP surface.
type App struct {
	logger   *zap.Logger
	keys     keymanager.KeyManager
	signer   *agent.Signer
	policies *policy.Manager
	executor *executor.Executor
	sink     audit.Sink
}

func NewApp(logger *zap.Logger, policies *policy.Manager, nonces executor.NonceStore, vaults executor.VaultActions, sink audit.Sink) (*App, error) {
	keys := keymanager.NewKeyManager(logger)

	agentKeys, err := keys.GenerateKeys()
	if err != nil {
		return nil, err
	}

	signer, err := agent.NewSigner(logger, agentKeys,
		config.GetMinDeadlineOffset(), config.GetMaxDeadlineOffset())
	if err != nil {
		return nil, err
	}

	exec := executor.New(logger, executorIdentity, signer.Identity(),
		policies, nonces, vaults, sink, config.GetMaxDeadlineOffset())

	logger.Info("agent signer registered", zap.String("identity", signer.Identity()))

	return &App{
		logger:   logger,
		keys:     keys,
		signer:   signer,
		policies: policies,
		executor: exec,
		sink:     sink,
	}, nil
}

// AgentIdentity returns the identity of the in-process demo agent.
func (a *App) AgentIdentity() string {
	return a.signer.Identity()
}

// SubmitProposal verifies and executes an externally signed proposal.
func (a *App) SubmitProposal(ctx context.Context, proposal model.Proposal, signature []byte) (executor.Outcome, error) {
	a.logger.Info("submitting a proposal",
		zap.String("vault", proposal.Vault),
		zap.String("actionType", proposal.ActionType.String()),
		zap.Uint64("nonce", proposal.Nonce))

	return a.executor.Process(ctx, proposal, signature)
}

// ProposeAndSubmit is the agent side of the demo loop: build a proposal for
// the intended action, sign it with the local agent key and push it through
// the executor.
func (a *App) ProposeAndSubmit(ctx context.Context, vault string, actionType model.ActionType, params []byte, contentHash string, deadlineOffset time.Duration) (model.Proposal, executor.Outcome, error) {
	proposal := a.signer.CreateProposal(vault, actionType, params, contentHash, deadlineOffset)
	signature := a.signer.Sign(proposal)

	outcome, err := a.executor.Process(ctx, proposal, signature)
	return proposal, outcome, err
}

// SetPolicy applies an owner-gated policy update. The first version claims
// ownership; later versions must come from the recorded owner.
func (a *App) SetPolicy(ctx context.Context, caller string, pol model.Policy) (model.Policy, error) {
	current, err := a.policies.ActivePolicy(ctx, pol.Vault)
	if err == nil {
		if current.Owner != caller {
			return model.Policy{}, ErrNotOwner
		}
	} else if !errors.Is(err, policy.ErrNoActivePolicy) {
		return model.Policy{}, err
	}

	pol.Owner = caller
	return a.policies.SetPolicy(ctx, pol)
}

func (a *App) GetActivePolicy(ctx context.Context, vault string) (model.Policy, error) {
	return a.policies.ActivePolicy(ctx, vault)
}

func (a *App) GetPolicyHistory(ctx context.Context, vault string) ([]model.Policy, error) {
	return a.policies.History(ctx, vault)
}

func (a *App) GetRecords(ctx context.Context, vault string) ([]model.ExecutionRecord, error) {
	return a.sink.Records(ctx, vault)
}

// EmergencyPause cuts off the registered agent signer.
func (a *App) EmergencyPause() {
	a.executor.EmergencyPause()
}

// EmergencyUnpause rotates the agent key and restores service under the new
// identity. Returns the new identity.
func (a *App) EmergencyUnpause() (string, error) {
	newKeys, err := a.keys.GenerateKeys()
	if err != nil {
		return "", errors.New("failed to rotate the agent keys: " + err.Error())
	}

	newSigner, err := agent.NewSigner(a.logger, newKeys,
		config.GetMinDeadlineOffset(), config.GetMaxDeadlineOffset())
	if err != nil {
		return "", err
	}

	if err := a.executor.EmergencyUnpause(newSigner.Identity()); err != nil {
		return "", err
	}

	a.signer = newSigner
	return newSigner.Identity(), nil
}

// BuildSwapParams encodes swap params for the agent propose endpoint.
func BuildSwapParams(venue string, tradeAmount, vaultBalance uint64) ([]byte, error) {
	return codec.EncodeSwapParams(model.SwapParams{
		Venue:        venue,
		TradeAmount:  tradeAmount,
		VaultBalance: vaultBalance,
	})
}

// BuildTransferParams encodes lend/borrow params for the agent propose
// endpoint.
func BuildTransferParams(amount, vaultBalance uint64) ([]byte, error) {
	return codec.EncodeTransferParams(model.TransferParams{
		Amount:       amount,
		VaultBalance: vaultBalance,
	})
}
