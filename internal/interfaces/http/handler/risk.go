package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fraud-risk-engine/internal/application/dto"
	riskapp "fraud-risk-engine/internal/application/risk"
	"fraud-risk-engine/internal/domain/risk"
)

// RiskHandler handles risk evaluation HTTP requests
type RiskHandler struct {
	evaluateUseCase *riskapp.EvaluateActivityUseCase
	engine          *risk.Engine
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(evaluateUseCase *riskapp.EvaluateActivityUseCase, engine *risk.Engine) *RiskHandler {
	return &RiskHandler{
		evaluateUseCase: evaluateUseCase,
		engine:          engine,
	}
}

// EvaluateActivity handles POST /api/v1/risk/evaluate
func (h *RiskHandler) EvaluateActivity(w http.ResponseWriter, r *http.Request) {
	var req riskapp.EvaluateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	input, err := req.ToInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.evaluateUseCase.Execute(r.Context(), *input)
	if err != nil {
		if errors.Is(err, risk.ErrMissingUserID) || errors.Is(err, risk.ErrMissingActivity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Risk evaluation failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// AddBlacklistRequest represents the request to blacklist an entity
type AddBlacklistRequest struct {
	EntityType  string     `json:"entity_type"`
	EntityValue string     `json:"entity_value"`
	Reason      string     `json:"reason"`
	AddedBy     string     `json:"added_by"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// AddToBlacklist handles POST /api/v1/risk/blacklist
func (h *RiskHandler) AddToBlacklist(w http.ResponseWriter, r *http.Request) {
	var req AddBlacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	err := h.engine.AddToBlacklist(r.Context(), risk.EntityType(req.EntityType), req.EntityValue, req.Reason, req.AddedBy, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidEntityType) || errors.Is(err, risk.ErrEmptyEntityValue) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add blacklist entry: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "blacklisted"})
}

// PaymentMismatchRequest represents the request to verify a settled payment
type PaymentMismatchRequest struct {
	UserID         string            `json:"user_id"`
	ExpectedAmount string            `json:"expected_amount"`
	ActualAmount   string            `json:"actual_amount"`
	PaymentMethod  string            `json:"payment_method"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// CheckPaymentMismatch handles POST /api/v1/risk/payments/mismatch
func (h *RiskHandler) CheckPaymentMismatch(w http.ResponseWriter, r *http.Request) {
	var req PaymentMismatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	expected, err := decimal.NewFromString(req.ExpectedAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid expected_amount")
		return
	}
	actual, err := decimal.NewFromString(req.ActualAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid actual_amount")
		return
	}

	if err := h.engine.CheckPaymentMismatch(r.Context(), userID, expected, actual, req.PaymentMethod, req.Metadata); err != nil {
		writeError(w, http.StatusInternalServerError, "Payment verification failed: "+err.Error())
		return
	}

	mismatch := expected.Sub(actual).Abs().GreaterThan(decimal.New(1, -2))
	writeJSON(w, http.StatusOK, map[string]bool{"mismatch": mismatch})
}

// ListAlerts handles GET /api/v1/risk/alerts
func (h *RiskHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	var resolved *bool
	if v := r.URL.Query().Get("resolved"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid resolved filter")
			return
		}
		resolved = &b
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	alerts, err := h.engine.ListAlerts(r.Context(), resolved, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts: "+err.Error())
		return
	}

	responses := make([]dto.AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = dto.AlertFromDomain(a)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": responses,
		"count":  len(responses),
	})
}

// ResolveAlertRequest represents the request to resolve an alert
type ResolveAlertRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Resolution string `json:"resolution"`
}

// ResolveAlert handles PUT /api/v1/risk/alerts/{id}/resolve
func (h *RiskHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	var req ResolveAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reviewerID, err := uuid.Parse(req.ReviewerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reviewer ID")
		return
	}

	alert, err := h.engine.ResolveAlert(r.Context(), alertID, reviewerID, req.Resolution)
	if err != nil {
		switch {
		case errors.Is(err, risk.ErrAlertNotFound):
			writeError(w, http.StatusNotFound, "Alert not found")
		case errors.Is(err, risk.ErrAlertAlreadyResolved):
			writeError(w, http.StatusConflict, "Alert is already resolved")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to resolve alert: "+err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.AlertFromDomain(alert))
}

// GetUserActivities handles GET /api/v1/risk/users/{id}/activities
func (h *RiskHandler) GetUserActivities(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	limit := queryInt(r, "limit", 50)

	records, err := h.engine.RecentActivity(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list activities: "+err.Error())
		return
	}

	responses := make([]dto.ActivityResponse, len(records))
	for i, rec := range records {
		responses[i] = dto.ActivityFromDomain(rec)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": responses,
		"count":      len(responses),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
