package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	riskapp "fraud-risk-engine/internal/application/risk"
	"fraud-risk-engine/internal/domain/risk"
	"fraud-risk-engine/internal/infrastructure/http/router"
	"fraud-risk-engine/internal/infrastructure/memory"
	"fraud-risk-engine/internal/interfaces/http/handler"
)

func newTestServer(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, store, nil, risk.Options{})
	useCase := riskapp.NewEvaluateActivityUseCase(engine, nil, 5*time.Second, nil)
	riskHandler := handler.NewRiskHandler(useCase, engine)
	healthHandler := handler.NewHealthHandler(nil, nil, "test")
	return router.NewRouter(riskHandler, healthHandler), store
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	userID := uuid.New()

	entry := risk.NewBlacklistEntry(risk.EntityIP, "203.0.113.9", "abuse", "ops", nil)
	require.NoError(t, store.Blacklist().Create(context.Background(), entry))

	body := fmt.Sprintf(`{
		"user_id": %q,
		"activity_type": "LOGIN",
		"ip_address": "203.0.113.9",
		"device_fingerprint": "fp-1",
		"user_agent": "agent-1"
	}`, userID)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/risk/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var decision struct {
		IsRisky     bool     `json:"is_risky"`
		RiskScore   int      `json:"risk_score"`
		Alerts      []string `json:"alerts"`
		ShouldBlock bool     `json:"should_block"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, 75, decision.RiskScore)
	assert.True(t, decision.IsRisky)
	assert.False(t, decision.ShouldBlock)
	assert.NotEmpty(t, decision.Alerts)
}

func TestEvaluateEndpointRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/risk/evaluate", `{"user_id": "not-a-uuid", "activity_type": "LOGIN"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/risk/evaluate", fmt.Sprintf(`{"user_id": %q}`, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/risk/evaluate", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlacklistEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/risk/blacklist",
		`{"entity_type": "IP", "entity_value": "203.0.113.9", "reason": "abuse", "added_by": "ops"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/risk/blacklist",
		`{"entity_type": "PASSPORT", "entity_value": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/risk/blacklist",
		`{"entity_type": "EMAIL", "entity_value": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentMismatchEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	userID := uuid.New()

	body := fmt.Sprintf(`{"user_id": %q, "expected_amount": "100.00", "actual_amount": "89.50", "payment_method": "card"}`, userID)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/risk/payments/mismatch", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var result map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result["mismatch"])

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.AlertPaymentMismatch, alerts[0].Type)
}

func TestAlertListAndResolveFlow(t *testing.T) {
	srv, store := newTestServer(t)
	userID := uuid.New()
	reviewerID := uuid.New()

	alert := risk.NewFraudAlert(userID, risk.AlertVelocityCheck, risk.SeverityMedium, "too many logins", 65)
	require.NoError(t, store.Create(context.Background(), alert))

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/risk/alerts?resolved=false", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)

	resolveBody := fmt.Sprintf(`{"reviewer_id": %q, "resolution": "false positive"}`, reviewerID)
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/risk/alerts/"+alert.ID.String()+"/resolve", resolveBody)
	require.Equal(t, http.StatusOK, rec.Code)

	// Resolving twice conflicts
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/risk/alerts/"+alert.ID.String()+"/resolve", resolveBody)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown alert
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/risk/alerts/"+uuid.NewString()+"/resolve", resolveBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserActivitiesEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	userID := uuid.New()

	rec := risk.NewActivityRecord(risk.ActivityInput{UserID: userID, Type: risk.ActivityLogin}, 10, false)
	require.NoError(t, store.RecordEvaluation(context.Background(), rec, nil))

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/risk/users/"+userID.String()+"/activities", "")
	require.Equal(t, http.StatusOK, resp.Code)

	var listing struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)

	resp = doJSON(t, srv, http.MethodGet, "/api/v1/risk/users/not-a-uuid/activities", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
