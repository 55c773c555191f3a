package risk

import "context"

const (
	scoreNewDevice    = 15
	scoreNewUserAgent = 10

	deviceHistoryDepth = 20
)

// DeviceAnomalyCheck scores device fingerprints and user agents not seen in
// the user's recent history. The two sub-signals are independent and
// additive.
type DeviceAnomalyCheck struct {
	activities ActivityRepository
}

func NewDeviceAnomalyCheck(activities ActivityRepository) *DeviceAnomalyCheck {
	return &DeviceAnomalyCheck{activities: activities}
}

func (c *DeviceAnomalyCheck) Name() string { return "device_anomaly" }

func (c *DeviceAnomalyCheck) Run(ctx context.Context, input ActivityInput) (CheckResult, error) {
	if input.DeviceFingerprint == "" && input.UserAgent == "" {
		return CheckResult{}, nil
	}

	recent, err := c.activities.ListRecent(ctx, input.UserID, deviceHistoryDepth)
	if err != nil {
		return CheckResult{}, err
	}
	knownDevices := make(map[string]bool, len(recent))
	knownAgents := make(map[string]bool, len(recent))
	for _, rec := range recent {
		if rec.DeviceFingerprint != "" {
			knownDevices[rec.DeviceFingerprint] = true
		}
		if rec.UserAgent != "" {
			knownAgents[rec.UserAgent] = true
		}
	}

	var result CheckResult
	if input.DeviceFingerprint != "" && !knownDevices[input.DeviceFingerprint] {
		result.Score += scoreNewDevice
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonNewDevice,
			Message: "new device fingerprint for this user",
		})
	}
	if input.UserAgent != "" && !knownAgents[input.UserAgent] {
		result.Score += scoreNewUserAgent
		result.Reasons = append(result.Reasons, Reason{
			Code:    ReasonNewUserAgent,
			Message: "new user agent for this user",
		})
	}

	return result, nil
}
