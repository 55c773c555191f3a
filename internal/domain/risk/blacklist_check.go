package risk

import "context"

const (
	scoreBlacklistedIP     = 50
	scoreBlacklistedDevice = 40
)

// BlacklistCheck scores activities whose IP or device fingerprint appears
// on the active blacklist. Missing fields skip that sub-check.
type BlacklistCheck struct {
	blacklist BlacklistRepository
}

func NewBlacklistCheck(blacklist BlacklistRepository) *BlacklistCheck {
	return &BlacklistCheck{blacklist: blacklist}
}

func (c *BlacklistCheck) Name() string { return "blacklist" }

func (c *BlacklistCheck) Run(ctx context.Context, input ActivityInput) (CheckResult, error) {
	var result CheckResult

	if input.IPAddress != "" {
		entries, err := c.blacklist.FindActive(ctx, EntityIP, input.IPAddress)
		if err != nil {
			return CheckResult{}, err
		}
		if len(entries) > 0 {
			result.Score += scoreBlacklistedIP
			result.Reasons = append(result.Reasons, Reason{
				Code:    ReasonBlacklistedIP,
				Message: "IP address is blacklisted",
			})
		}
	}

	if input.DeviceFingerprint != "" {
		entries, err := c.blacklist.FindActive(ctx, EntityDevice, input.DeviceFingerprint)
		if err != nil {
			return CheckResult{}, err
		}
		if len(entries) > 0 {
			result.Score += scoreBlacklistedDevice
			result.Reasons = append(result.Reasons, Reason{
				Code:    ReasonBlacklistedDevice,
				Message: "Device is blacklisted",
			})
		}
	}

	return result, nil
}
