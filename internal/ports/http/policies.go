package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"vault-sentinel/internal/app"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"
	"vault-sentinel/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type wirePolicy struct {
	Vault              string   `json:"vault"`
	Owner              string   `json:"owner,omitempty"`
	RiskTolerance      uint     `json:"riskTolerance"`
	MaxTradePercent    uint     `json:"maxTradePercent"`
	EmergencyThreshold uint     `json:"emergencyThreshold"`
	AllowedVenues      []string `json:"allowedVenues"`
	Active             bool     `json:"active"`
	Version            uint     `json:"version"`
}

func (ser server) putPolicy(w http.ResponseWriter, r *http.Request) {
	vault := mux.Vars(r)["vault"]
	owner := auth.Owner(r.Context())

	var request wirePolicy
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ser.badRequest(w, "failed to decode the request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	stored, err := ser.app.SetPolicy(ctx, owner, model.Policy{
		Vault:              vault,
		RiskTolerance:      request.RiskTolerance,
		MaxTradePercent:    request.MaxTradePercent,
		EmergencyThreshold: request.EmergencyThreshold,
		AllowedVenues:      request.AllowedVenues,
	})
	if errors.Is(err, app.ErrNotOwner) {
		ser.logger.Warn("policy update refused", zap.String("vault", vault), zap.String("caller", owner))
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if errors.Is(err, policy.ErrInvalidPolicy) {
		ser.badRequest(w, err.Error())
		return
	}
	if err != nil {
		ser.serverError(w, "saving the policy failed: "+err.Error())
		return
	}

	w.WriteHeader(http.StatusCreated)
	ser.writeJSON(w, toWirePolicy(stored))
}

func (ser server) getPolicyHistory(w http.ResponseWriter, r *http.Request) {
	vault := mux.Vars(r)["vault"]

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	history, err := ser.app.GetPolicyHistory(ctx, vault)
	if err != nil {
		ser.serverError(w, "getting the policy history failed: "+err.Error())
		return
	}

	response := make([]wirePolicy, len(history))
	for i, version := range history {
		response[i] = toWirePolicy(version)
	}
	ser.writeJSON(w, response)
}

func (ser server) postPause(w http.ResponseWriter, r *http.Request) {
	ser.logger.Warn("emergency pause requested", zap.String("caller", auth.Owner(r.Context())))
	ser.app.EmergencyPause()
	w.WriteHeader(http.StatusNoContent)
}

func (ser server) postUnpause(w http.ResponseWriter, r *http.Request) {
	newIdentity, err := ser.app.EmergencyUnpause()
	if err != nil {
		ser.serverError(w, "unpausing failed: "+err.Error())
		return
	}

	ser.logger.Info("service unpaused",
		zap.String("caller", auth.Owner(r.Context())),
		zap.String("agentSigner", newIdentity))

	ser.writeJSON(w, map[string]string{"agentSigner": newIdentity})
}

func toWirePolicy(pol model.Policy) wirePolicy {
	return wirePolicy{
		Vault:              pol.Vault,
		Owner:              pol.Owner,
		RiskTolerance:      pol.RiskTolerance,
		MaxTradePercent:    pol.MaxTradePercent,
		EmergencyThreshold: pol.EmergencyThreshold,
		AllowedVenues:      pol.AllowedVenues,
		Active:             pol.Active,
		Version:            pol.Version,
	}
}
