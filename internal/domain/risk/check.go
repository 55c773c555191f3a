package risk

import "context"

// ReasonCode identifies which signal fired, independent of the
// human-readable message. Alert classification keys off these codes, never
// off message text.
type ReasonCode string

const (
	ReasonBlacklistedIP     ReasonCode = "BLACKLISTED_IP"
	ReasonBlacklistedDevice ReasonCode = "BLACKLISTED_DEVICE"
	ReasonVelocityExceeded  ReasonCode = "VELOCITY_EXCEEDED"
	ReasonImpossibleTravel  ReasonCode = "IMPOSSIBLE_TRAVEL"
	ReasonNewDevice         ReasonCode = "NEW_DEVICE"
	ReasonNewUserAgent      ReasonCode = "NEW_USER_AGENT"
	ReasonFlaggedHistory    ReasonCode = "FLAGGED_HISTORY"
	ReasonPaymentMismatch   ReasonCode = "PAYMENT_MISMATCH"
)

// Reason is one triggered signal
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

// CheckResult is the contribution of one check module to an evaluation
type CheckResult struct {
	Score   int      `json:"score"`
	Reasons []Reason `json:"reasons"`
}

// Check is an independent scoring module. Checks only read from the stores;
// they never write. A check that has nothing to say returns a zero result.
type Check interface {
	Name() string
	Run(ctx context.Context, input ActivityInput) (CheckResult, error)
}

// alertTypeFor derives the alert classification from the set of fired
// reason codes. Precedence mirrors the order the reference inspected
// reasons: velocity, then travel, then device signals, then payment.
func alertTypeFor(reasons []Reason) AlertType {
	fired := make(map[ReasonCode]bool, len(reasons))
	for _, r := range reasons {
		fired[r.Code] = true
	}

	switch {
	case fired[ReasonVelocityExceeded]:
		return AlertVelocityCheck
	case fired[ReasonImpossibleTravel]:
		return AlertIPChange
	case fired[ReasonNewDevice], fired[ReasonNewUserAgent], fired[ReasonBlacklistedDevice]:
		return AlertDeviceChange
	case fired[ReasonPaymentMismatch]:
		return AlertPaymentMismatch
	default:
		return AlertSuspiciousActivity
	}
}
