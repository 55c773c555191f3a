package risk

import (
	"context"
	"fmt"
	"time"
)

const scoreVelocityExceeded = 30

// VelocityLimit caps how many activities of one type a user may perform
// inside a sliding window
type VelocityLimit struct {
	MaxCount      int
	WindowMinutes int
}

// DefaultVelocityLimits returns the stock per-type limits. Deployments
// override these through configuration; types without a limit are never
// velocity-scored.
func DefaultVelocityLimits() map[ActivityType]VelocityLimit {
	return map[ActivityType]VelocityLimit{
		ActivityLogin:      {MaxCount: 10, WindowMinutes: 60},
		ActivityPayment:    {MaxCount: 5, WindowMinutes: 30},
		ActivityOrderPlace: {MaxCount: 20, WindowMinutes: 60},
		ActivityWithdrawal: {MaxCount: 3, WindowMinutes: 120},
	}
}

// VelocityCheck scores repeated activity of the same type inside the
// configured window. The count includes the activity being evaluated, so
// the limit-th attempt inside the window trips the check.
type VelocityCheck struct {
	counter ActivityCounter
	limits  map[ActivityType]VelocityLimit
	now     func() time.Time
}

func NewVelocityCheck(counter ActivityCounter, limits map[ActivityType]VelocityLimit) *VelocityCheck {
	if limits == nil {
		limits = DefaultVelocityLimits()
	}
	return &VelocityCheck{counter: counter, limits: limits, now: time.Now}
}

func (c *VelocityCheck) Name() string { return "velocity" }

func (c *VelocityCheck) Run(ctx context.Context, input ActivityInput) (CheckResult, error) {
	limit, ok := c.limits[input.Type]
	if !ok {
		return CheckResult{}, nil
	}

	since := c.now().Add(-time.Duration(limit.WindowMinutes) * time.Minute)
	prior, err := c.counter.CountByUserAndType(ctx, input.UserID, input.Type, since)
	if err != nil {
		return CheckResult{}, err
	}

	seen := prior + 1 // include the current attempt
	if seen < int64(limit.MaxCount) {
		return CheckResult{}, nil
	}

	return CheckResult{
		Score: scoreVelocityExceeded,
		Reasons: []Reason{{
			Code: ReasonVelocityExceeded,
			Message: fmt.Sprintf("%d %s activities in the last %d minutes (limit %d)",
				seen, input.Type, limit.WindowMinutes, limit.MaxCount),
		}},
	}, nil
}
