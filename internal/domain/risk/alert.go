package risk

import (
	"time"

	"github.com/google/uuid"
)

// AlertType classifies what kind of signal produced a fraud alert
type AlertType string

const (
	AlertPaymentMismatch    AlertType = "PAYMENT_MISMATCH"
	AlertSuspiciousActivity AlertType = "SUSPICIOUS_ACTIVITY"
	AlertVelocityCheck      AlertType = "VELOCITY_CHECK"
	AlertIPChange           AlertType = "IP_CHANGE"
	AlertDeviceChange       AlertType = "DEVICE_CHANGE"
	AlertUnusualTransaction AlertType = "UNUSUAL_TRANSACTION"
)

// Severity bands for fraud alerts
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// FraudAlert is a persisted, human-reviewable record created when an
// evaluation crosses the risky threshold (or directly by the payment
// mismatch gate). Resolution fields are set later by the review workflow.
type FraudAlert struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	Type        AlertType         `json:"alert_type"`
	Severity    Severity          `json:"severity"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	RiskScore   int               `json:"risk_score"`
	IsResolved  bool              `json:"is_resolved"`
	ResolvedBy  *uuid.UUID        `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
	Resolution  string            `json:"resolution,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewFraudAlert creates an unresolved alert
func NewFraudAlert(userID uuid.UUID, alertType AlertType, severity Severity, description string, score int) *FraudAlert {
	return &FraudAlert{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        alertType,
		Severity:    severity,
		Description: description,
		Metadata:    make(map[string]string),
		RiskScore:   score,
		CreatedAt:   time.Now().UTC(),
	}
}

// Resolve marks the alert as handled by a reviewer
func (a *FraudAlert) Resolve(reviewerID uuid.UUID, resolution string) error {
	if a.IsResolved {
		return ErrAlertAlreadyResolved
	}
	now := time.Now().UTC()
	a.IsResolved = true
	a.ResolvedBy = &reviewerID
	a.ResolvedAt = &now
	a.Resolution = resolution
	return nil
}
