package config

import (
	"errors"
	"fmt"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Risk.RiskyThreshold < 0 || c.Risk.RiskyThreshold > 100 {
		return errors.New("risky_threshold must be between 0 and 100")
	}

	if c.Risk.BlockThreshold < 0 || c.Risk.BlockThreshold > 100 {
		return errors.New("block_threshold must be between 0 and 100")
	}

	// Thresholds should be in order: risky < block
	if c.Risk.RiskyThreshold >= c.Risk.BlockThreshold {
		return errors.New("risky_threshold should be less than block_threshold")
	}

	if c.Risk.EvaluationTimeout <= 0 {
		return errors.New("evaluation_timeout must be positive")
	}

	for activityType, limit := range c.Risk.Velocity {
		if limit.MaxCount <= 0 {
			return fmt.Errorf("velocity max_count for %s must be positive", activityType)
		}
		if limit.WindowMinutes <= 0 {
			return fmt.Errorf("velocity window_minutes for %s must be positive", activityType)
		}
	}

	return nil
}
