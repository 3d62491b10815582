package http

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vault-sentinel/internal/agent"
	"vault-sentinel/internal/app"
	"vault-sentinel/internal/audit"
	"vault-sentinel/internal/executor"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"
	"vault-sentinel/internal/signkeys"
	"vault-sentinel/internal/vault"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (server, *app.App) {
	t.Helper()
	viper.Set("DISABLE_AUTH", true)
	logger := zap.NewNop()

	policies := policy.NewManager(logger, policy.NewMemoryStore(), nil)
	vaults := vault.NewRegistry(logger)
	vaults.SetBalance("V", 1000)

	application, err := app.NewApp(logger, policies, executor.NewMemoryNonceStore(), vaults, audit.NewMemorySink())
	require.NoError(t, err)

	return NewServer(logger, application, ":0"), application
}

func newTestRouter(t *testing.T) (*mux.Router, *app.App) {
	t.Helper()
	ser, application := newTestServer(t)
	router := mux.NewRouter()
	ser.registerHandlers(router)
	return router, application
}

func putTestPolicy(t *testing.T, router *mux.Router, owner string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(wirePolicy{
		RiskTolerance:      50,
		MaxTradePercent:    10,
		EmergencyThreshold: 90,
		AllowedVenues:      []string{"X"},
	})
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPut, "/api/policies/V", bytes.NewReader(body))
	request.Header.Set("X-Owner-ID", owner)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestPutPolicyAndHistory(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := putTestPolicy(t, router, "owner-1")
	assert.Equal(t, http.StatusCreated, recorder.Code)

	// a different caller may not update it
	recorder = putTestPolicy(t, router, "intruder")
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// missing owner header is unauthorized
	request := httptest.NewRequest(http.MethodPut, "/api/policies/V", bytes.NewReader([]byte("{}")))
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/policies/V", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var history []wirePolicy
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.True(t, history[0].Active)
	assert.Equal(t, uint(1), history[0].Version)
}

func TestAgentProposeFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := putTestPolicy(t, router, "owner-1")
	require.Equal(t, http.StatusCreated, recorder.Code)

	body, err := json.Marshal(agentProposeRequest{
		Vault:        "V",
		ActionType:   "Swap",
		Venue:        "X",
		Amount:       100,
		VaultBalance: 1000,
		ContentHash:  "QmCid",
	})
	require.NoError(t, err)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/agent/propose", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, recorder.Code)

	var response submitResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, string(executor.StatusExecuted), response.Status)
	assert.NotEmpty(t, response.RecordID)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/records/V", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var records []model.ExecutionRecord
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestPostProposalRejectsStranger(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := putTestPolicy(t, router, "owner-1")
	require.Equal(t, http.StatusCreated, recorder.Code)

	// a proposal signed by a key the executor does not know
	keys, err := signkeys.GenerateKeys()
	require.NoError(t, err)
	stranger, err := agent.NewSigner(zap.NewNop(), keys, time.Second, 24*time.Hour)
	require.NoError(t, err)

	params, err := app.BuildSwapParams("X", 10, 1000)
	require.NoError(t, err)
	proposal := stranger.CreateProposal("V", model.ActionSwap, params, "cid", time.Hour)
	signature := stranger.Sign(proposal)

	body, err := json.Marshal(submitRequest{
		Proposal: wireProposal{
			Vault:       proposal.Vault,
			ActionType:  proposal.ActionType.String(),
			Params:      hex.EncodeToString(proposal.Params),
			ContentHash: proposal.ContentHash,
			Nonce:       proposal.Nonce,
			Deadline:    proposal.Deadline.Unix(),
		},
		Signature: hex.EncodeToString(signature),
	})
	require.NoError(t, err)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/proposals", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, recorder.Code)

	var response submitResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, string(executor.StatusRejected), response.Status)
	assert.Equal(t, string(model.ReasonInvalidSignature), response.Reason)
}

func TestPostProposalBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/proposals", bytes.NewReader([]byte("not json"))))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	// valid JSON, broken hex fields
	body, err := json.Marshal(submitRequest{
		Proposal:  wireProposal{Vault: "V", ActionType: "Swap", Params: "zz"},
		Signature: "not-hex",
	})
	require.NoError(t, err)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/proposals", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPauseUnpauseEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := putTestPolicy(t, router, "owner-1")
	require.Equal(t, http.StatusCreated, recorder.Code)

	request := httptest.NewRequest(http.MethodPost, "/api/admin/pause", nil)
	request.Header.Set("X-Owner-ID", "owner-1")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)

	request = httptest.NewRequest(http.MethodPost, "/api/admin/unpause", nil)
	request.Header.Set("X-Owner-ID", "owner-1")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response["agentSigner"])
}
