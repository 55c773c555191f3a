package dto

import (
	"time"

	"github.com/google/uuid"

	"fraud-risk-engine/internal/domain/risk"
)

// DecisionResponse is the evaluation outcome returned to API callers
type DecisionResponse struct {
	IsRisky     bool     `json:"is_risky"`
	RiskScore   int      `json:"risk_score"`
	Alerts      []string `json:"alerts"`
	ShouldBlock bool     `json:"should_block"`
	LatencyMs   int64    `json:"latency_ms"`
}

// AlertResponse represents a fraud alert in API responses
type AlertResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	AlertType   string            `json:"alert_type"`
	Severity    string            `json:"severity"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RiskScore   int               `json:"risk_score"`
	IsResolved  bool              `json:"is_resolved"`
	ResolvedBy  *uuid.UUID        `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	Resolution  string            `json:"resolution,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// AlertFromDomain converts a domain alert to its API representation
func AlertFromDomain(a *risk.FraudAlert) AlertResponse {
	return AlertResponse{
		ID:          a.ID,
		UserID:      a.UserID,
		AlertType:   string(a.Type),
		Severity:    string(a.Severity),
		Description: a.Description,
		Metadata:    a.Metadata,
		RiskScore:   a.RiskScore,
		IsResolved:  a.IsResolved,
		ResolvedBy:  a.ResolvedBy,
		ResolvedAt:  a.ResolvedAt,
		Resolution:  a.Resolution,
		CreatedAt:   a.CreatedAt,
	}
}

// ActivityResponse represents an activity record in API responses
type ActivityResponse struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	ActivityType      string         `json:"activity_type"`
	IPAddress         string         `json:"ip_address,omitempty"`
	UserAgent         string         `json:"user_agent,omitempty"`
	DeviceFingerprint string         `json:"device_fingerprint,omitempty"`
	Location          *risk.Location `json:"location,omitempty"`
	SessionID         string         `json:"session_id,omitempty"`
	RiskScore         int            `json:"risk_score"`
	Flagged           bool           `json:"flagged"`
	CreatedAt         time.Time      `json:"created_at"`
}

// ActivityFromDomain converts a domain activity record to its API representation
func ActivityFromDomain(rec *risk.ActivityRecord) ActivityResponse {
	return ActivityResponse{
		ID:                rec.ID,
		UserID:            rec.UserID,
		ActivityType:      string(rec.Type),
		IPAddress:         rec.IPAddress,
		UserAgent:         rec.UserAgent,
		DeviceFingerprint: rec.DeviceFingerprint,
		Location:          rec.Location,
		SessionID:         rec.SessionID,
		RiskScore:         rec.RiskScore,
		Flagged:           rec.Flagged,
		CreatedAt:         rec.CreatedAt,
	}
}
