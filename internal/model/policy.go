package model

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Policy is one version of the per-vault governance configuration. Updates
// never overwrite: a new version is appended and the previous one is
// deactivated, so at most one version per vault is active at any time.
type Policy struct {
	Vault              string
	Owner              string
	RiskTolerance      uint
	MaxTradePercent    uint
	EmergencyThreshold uint
	AllowedVenues      []string
	Active             bool
	Version            uint
	UpdatedAt          time.Time
}

func (p Policy) Validate() (err error) {
	if p.RiskTolerance > 100 {
		err = multierr.Append(err, fmt.Errorf("riskTolerance out of bounds: %d", p.RiskTolerance))
	}
	if p.MaxTradePercent > 100 {
		err = multierr.Append(err, fmt.Errorf("maxTradePercent out of bounds: %d", p.MaxTradePercent))
	}
	if p.EmergencyThreshold > 100 {
		err = multierr.Append(err, fmt.Errorf("emergencyThreshold out of bounds: %d", p.EmergencyThreshold))
	}
	if len(p.AllowedVenues) == 0 {
		err = multierr.Append(err, errors.New("allowedVenues must not be empty"))
	}
	return err
}

// VenueAllowed reports whether the venue is on the policy whitelist.
func (p Policy) VenueAllowed(venue string) bool {
	for _, allowed := range p.AllowedVenues {
		if allowed == venue {
			return true
		}
	}
	return false
}
