package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"vault-sentinel/internal/app"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/executor"
	"vault-sentinel/internal/model"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type wireProposal struct {
	Vault       string `json:"vault"`
	ActionType  string `json:"actionType"`
	Params      string `json:"params"`
	ContentHash string `json:"contentHash"`
	Nonce       uint64 `json:"nonce"`
	Deadline    int64  `json:"deadline"`
}

type submitRequest struct {
	Proposal  wireProposal `json:"proposal"`
	Signature string       `json:"signature"`
}

type submitResponse struct {
	Status   string `json:"status"`
	RecordID string `json:"recordId,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type agentProposeRequest struct {
	Vault          string `json:"vault"`
	ActionType     string `json:"actionType"`
	Venue          string `json:"venue"`
	Amount         uint64 `json:"amount"`
	VaultBalance   uint64 `json:"vaultBalance"`
	ContentHash    string `json:"contentHash"`
	DeadlineOffset string `json:"deadlineOffset"`
}

func (ser server) postProposal(w http.ResponseWriter, r *http.Request) {

	var request submitRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ser.badRequest(w, "failed to decode the request body: "+err.Error())
		return
	}

	proposal, signature, err := readWireProposal(request)
	if err != nil {
		ser.badRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	outcome, err := ser.app.SubmitProposal(ctx, proposal, signature)
	if err != nil {
		ser.serverError(w, "submitting the proposal failed: "+err.Error())
		return
	}

	ser.writeOutcome(w, outcome)
}

func (ser server) postAgentPropose(w http.ResponseWriter, r *http.Request) {

	var request agentProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		ser.badRequest(w, "failed to decode the request body: "+err.Error())
		return
	}

	actionType, ok := model.ActionTypeFromString(request.ActionType)
	if !ok {
		ser.badRequest(w, "unknown action type: "+request.ActionType)
		return
	}

	var params []byte
	var err error
	switch actionType {
	case model.ActionSwap:
		params, err = app.BuildSwapParams(request.Venue, request.Amount, request.VaultBalance)
	case model.ActionLend, model.ActionBorrow:
		params, err = app.BuildTransferParams(request.Amount, request.VaultBalance)
	}
	if err != nil {
		ser.serverError(w, "failed to encode the action params: "+err.Error())
		return
	}

	offset := time.Hour
	if request.DeadlineOffset != "" {
		offset, err = time.ParseDuration(request.DeadlineOffset)
		if err != nil {
			ser.badRequest(w, "invalid deadlineOffset: "+err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	proposal, outcome, err := ser.app.ProposeAndSubmit(ctx, request.Vault, actionType, params, request.ContentHash, offset)
	if err != nil {
		ser.serverError(w, "agent proposal failed: "+err.Error())
		return
	}

	ser.logger.Info("agent proposal processed",
		zap.String("vault", proposal.Vault),
		zap.Uint64("nonce", proposal.Nonce),
		zap.String("status", string(outcome.Status)))

	ser.writeOutcome(w, outcome)
}

func (ser server) getRecords(w http.ResponseWriter, r *http.Request) {
	vault := mux.Vars(r)["vault"]

	ctx, cancel := context.WithTimeout(r.Context(), config.GetRequestTimeout())
	defer cancel()

	records, err := ser.app.GetRecords(ctx, vault)
	if err != nil {
		ser.serverError(w, "getting the records failed: "+err.Error())
		return
	}

	ser.writeJSON(w, records)
}

func readWireProposal(request submitRequest) (model.Proposal, []byte, error) {
	var err error

	if request.Proposal.Vault == "" {
		err = multierr.Append(err, errors.New("vault is missing"))
	}
	actionType, ok := model.ActionTypeFromString(request.Proposal.ActionType)
	if !ok {
		err = multierr.Append(err, errors.New("unknown action type: "+request.Proposal.ActionType))
	}
	params, decodeErr := hex.DecodeString(request.Proposal.Params)
	if decodeErr != nil {
		err = multierr.Append(err, errors.New("params is not valid hex: "+decodeErr.Error()))
	}
	signature, decodeErr := hex.DecodeString(request.Signature)
	if decodeErr != nil {
		err = multierr.Append(err, errors.New("signature is not valid hex: "+decodeErr.Error()))
	}
	if err != nil {
		return model.Proposal{}, nil, err
	}

	return model.Proposal{
		Vault:       request.Proposal.Vault,
		ActionType:  actionType,
		Params:      params,
		ContentHash: request.Proposal.ContentHash,
		Nonce:       request.Proposal.Nonce,
		Deadline:    time.Unix(request.Proposal.Deadline, 0),
	}, signature, nil
}

func (ser server) writeOutcome(w http.ResponseWriter, outcome executor.Outcome) {
	ser.writeJSON(w, submitResponse{
		Status:   string(outcome.Status),
		RecordID: outcome.RecordID,
		Reason:   string(outcome.Reason),
		Detail:   outcome.Detail,
	})
}

func (ser server) writeJSON(w http.ResponseWriter, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		ser.serverError(w, "marshalling the response failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(response); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}
