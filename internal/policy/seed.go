package policy

import (
	"context"
	"errors"
	"os"

	"vault-sentinel/internal/model"

	"gopkg.in/yaml.v3"
)

type seedPolicy struct {
	Vault              string   `yaml:"vault"`
	Owner              string   `yaml:"owner"`
	RiskTolerance      uint     `yaml:"riskTolerance"`
	MaxTradePercent    uint     `yaml:"maxTradePercent"`
	EmergencyThreshold uint     `yaml:"emergencyThreshold"`
	AllowedVenues      []string `yaml:"allowedVenues"`
}

type seedFile struct {
	Policies []seedPolicy `yaml:"policies"`
}

// LoadSeedFile reads initial vault policies from a YAML file. Used to
// bootstrap demo deployments before any owner has called the admin API.
func LoadSeedFile(path string) ([]model.Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("failed to read the policy seed file: " + err.Error())
	}

	var parsed seedFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.New("failed to parse the policy seed file: " + err.Error())
	}

	policies := make([]model.Policy, len(parsed.Policies))
	for i, seed := range parsed.Policies {
		policies[i] = model.Policy{
			Vault:              seed.Vault,
			Owner:              seed.Owner,
			RiskTolerance:      seed.RiskTolerance,
			MaxTradePercent:    seed.MaxTradePercent,
			EmergencyThreshold: seed.EmergencyThreshold,
			AllowedVenues:      seed.AllowedVenues,
		}
	}
	return policies, nil
}

// ApplySeed inserts every seed policy through the manager, so the usual
// bound checks and versioning apply.
func (m *Manager) ApplySeed(ctx context.Context, policies []model.Policy) error {
	for _, policy := range policies {
		if _, err := m.SetPolicy(ctx, policy); err != nil {
			return errors.New("failed to apply the seed policy for vault " + policy.Vault + ": " + err.Error())
		}
	}
	return nil
}
