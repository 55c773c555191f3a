package risk

import "errors"

var (
	// Evaluation errors
	ErrMissingUserID   = errors.New("activity is missing a user id")
	ErrMissingActivity = errors.New("activity type is required")
	ErrCheckFailed     = errors.New("risk check failed")

	// Alert errors
	ErrAlertNotFound        = errors.New("fraud alert not found")
	ErrAlertAlreadyResolved = errors.New("fraud alert is already resolved")

	// Blacklist errors
	ErrInvalidEntityType = errors.New("invalid blacklist entity type")
	ErrEmptyEntityValue  = errors.New("blacklist entity value is required")

	// Store errors
	ErrActivityNotFound = errors.New("activity record not found")
)
