package risk

import (
	"context"
	"fmt"
	"time"
)

const (
	scoreImpossibleTravel = 25

	locationHistoryDepth = 10
	maxTravelGap         = 12 * time.Hour
)

// LocationAnomalyCheck flags a country change that happens faster than
// plausible travel allows. This is a coarse country-level heuristic, not a
// great-circle speed computation.
type LocationAnomalyCheck struct {
	activities ActivityRepository
	now        func() time.Time
}

func NewLocationAnomalyCheck(activities ActivityRepository) *LocationAnomalyCheck {
	return &LocationAnomalyCheck{activities: activities, now: time.Now}
}

func (c *LocationAnomalyCheck) Name() string { return "location_anomaly" }

func (c *LocationAnomalyCheck) Run(ctx context.Context, input ActivityInput) (CheckResult, error) {
	if input.Location == nil || input.Location.Country == "" {
		return CheckResult{}, nil
	}

	recent, err := c.activities.ListRecentWithLocation(ctx, input.UserID, locationHistoryDepth)
	if err != nil {
		return CheckResult{}, err
	}
	if len(recent) == 0 {
		return CheckResult{}, nil
	}

	last := recent[0]
	if last.Location == nil || last.Location.Country == input.Location.Country {
		return CheckResult{}, nil
	}

	elapsed := c.now().Sub(last.CreatedAt)
	if elapsed >= maxTravelGap {
		return CheckResult{}, nil
	}

	return CheckResult{
		Score: scoreImpossibleTravel,
		Reasons: []Reason{{
			Code: ReasonImpossibleTravel,
			Message: fmt.Sprintf("country changed from %s to %s within %.1f hours",
				last.Location.Country, input.Location.Country, elapsed.Hours()),
		}},
	}, nil
}
