package risk

import (
	"time"

	"github.com/google/uuid"
)

// EntityType is the kind of value a blacklist entry bans
type EntityType string

const (
	EntityEmail       EntityType = "EMAIL"
	EntityPhone       EntityType = "PHONE"
	EntityIP          EntityType = "IP"
	EntityDevice      EntityType = "DEVICE"
	EntityBankAccount EntityType = "BANK_ACCOUNT"
)

// BlacklistEntry bans a single entity value. Entries are append-only;
// duplicates are allowed and each applies independently.
type BlacklistEntry struct {
	ID          uuid.UUID  `json:"id"`
	EntityType  EntityType `json:"entity_type"`
	EntityValue string     `json:"entity_value"`
	Reason      string     `json:"reason"`
	AddedBy     string     `json:"added_by"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewBlacklistEntry creates an active entry
func NewBlacklistEntry(entityType EntityType, entityValue, reason, addedBy string, expiresAt *time.Time) *BlacklistEntry {
	return &BlacklistEntry{
		ID:          uuid.New(),
		EntityType:  entityType,
		EntityValue: entityValue,
		Reason:      reason,
		AddedBy:     addedBy,
		IsActive:    true,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsEffective reports whether the entry should apply at the given time.
// NOTE: the lookup path currently filters on IsActive only and does not
// consult ExpiresAt, so expired-but-active entries still match. Enforcing
// expiry would change scoring for existing data (see DESIGN.md).
func (e *BlacklistEntry) IsEffective(now time.Time) bool {
	if !e.IsActive {
		return false
	}
	return e.ExpiresAt == nil || e.ExpiresAt.After(now)
}
