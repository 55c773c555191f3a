package risk

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType categorizes the user action being evaluated
type ActivityType string

const (
	ActivityLogin          ActivityType = "LOGIN"
	ActivityPayment        ActivityType = "PAYMENT"
	ActivityOrderPlace     ActivityType = "ORDER_PLACE"
	ActivityProfileUpdate  ActivityType = "PROFILE_UPDATE"
	ActivityPasswordChange ActivityType = "PASSWORD_CHANGE"
	ActivityWithdrawal     ActivityType = "WITHDRAWAL"
	ActivityRefund         ActivityType = "REFUND"
	ActivityAdminLogin     ActivityType = "ADMIN_LOGIN"
)

// Location is a pre-resolved geolocation attached to an activity.
// Resolution happens upstream; this service never touches IP databases.
type Location struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ActivityInput is the request-context snapshot submitted for evaluation
type ActivityInput struct {
	UserID            uuid.UUID         `json:"user_id"`
	Type              ActivityType      `json:"activity_type"`
	IPAddress         string            `json:"ip_address,omitempty"`
	UserAgent         string            `json:"user_agent,omitempty"`
	DeviceFingerprint string            `json:"device_fingerprint,omitempty"`
	Location          *Location         `json:"location,omitempty"`
	SessionID         string            `json:"session_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// ActivityRecord is the append-only log entry for one evaluated activity.
// Records are never mutated after creation; they are the history that
// future evaluations read.
type ActivityRecord struct {
	ID                uuid.UUID         `json:"id"`
	UserID            uuid.UUID         `json:"user_id"`
	Type              ActivityType      `json:"activity_type"`
	IPAddress         string            `json:"ip_address,omitempty"`
	UserAgent         string            `json:"user_agent,omitempty"`
	DeviceFingerprint string            `json:"device_fingerprint,omitempty"`
	Location          *Location         `json:"location,omitempty"`
	SessionID         string            `json:"session_id,omitempty"`
	RiskScore         int               `json:"risk_score"`
	Flagged           bool              `json:"flagged"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// NewActivityRecord builds the record for an evaluated activity
func NewActivityRecord(input ActivityInput, score int, flagged bool) *ActivityRecord {
	return &ActivityRecord{
		ID:                uuid.New(),
		UserID:            input.UserID,
		Type:              input.Type,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.DeviceFingerprint,
		Location:          input.Location,
		SessionID:         input.SessionID,
		RiskScore:         score,
		Flagged:           flagged,
		Metadata:          input.Metadata,
		CreatedAt:         time.Now().UTC(),
	}
}

// Decision is the outcome of one evaluation, returned to the caller
type Decision struct {
	IsRisky     bool     `json:"is_risky"`
	RiskScore   int      `json:"risk_score"`
	Alerts      []string `json:"alerts"`
	ShouldBlock bool     `json:"should_block"`
}
