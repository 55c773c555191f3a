package risk

import (
	"context"
	"fmt"
	"time"
)

const (
	scorePerFlaggedActivity = 5

	flaggedHistoryWindow = 7 * 24 * time.Hour
)

// BehaviorHistoryCheck scores users with recently flagged activity. The
// contribution is unbounded here; the engine clamps the aggregate to 100.
type BehaviorHistoryCheck struct {
	activities ActivityRepository
	now        func() time.Time
}

func NewBehaviorHistoryCheck(activities ActivityRepository) *BehaviorHistoryCheck {
	return &BehaviorHistoryCheck{activities: activities, now: time.Now}
}

func (c *BehaviorHistoryCheck) Name() string { return "behavior_history" }

func (c *BehaviorHistoryCheck) Run(ctx context.Context, input ActivityInput) (CheckResult, error) {
	since := c.now().Add(-flaggedHistoryWindow)
	flagged, err := c.activities.CountFlagged(ctx, input.UserID, since)
	if err != nil {
		return CheckResult{}, err
	}
	if flagged == 0 {
		return CheckResult{}, nil
	}

	return CheckResult{
		Score: int(flagged) * scorePerFlaggedActivity,
		Reasons: []Reason{{
			Code:    ReasonFlaggedHistory,
			Message: fmt.Sprintf("%d flagged activities in the last 7 days", flagged),
		}},
	}, nil
}
