// Package policy holds the per-vault governance configuration and answers
// "is this action allowed" queries. Missing or inactive configuration always
// fails closed.
package policy

import (
	"context"
	"errors"

	"vault-sentinel/internal/model"
)

// ErrNoActivePolicy is returned by a Store when the vault has no active
// policy version.
var ErrNoActivePolicy = errors.New("no active policy")

// ErrInvalidPolicy marks a rejected policy update (a field out of bounds or
// an empty venue whitelist).
var ErrInvalidPolicy = errors.New("invalid policy")

// Store persists the append-only policy version history. Implementations:
// the in-memory store below for unit tests and the mongodb repository for
// deployments.
type Store interface {
	// ActivePolicy returns the single active version for the vault, or
	// ErrNoActivePolicy.
	ActivePolicy(ctx context.Context, vault string) (model.Policy, error)
	// History returns all versions for the vault, oldest first. Superseded
	// versions are retained for audit, never deleted.
	History(ctx context.Context, vault string) ([]model.Policy, error)
	// Replace deactivates the currently active version (if any) and inserts
	// the new one as active, in one step.
	Replace(ctx context.Context, policy model.Policy) error
}
