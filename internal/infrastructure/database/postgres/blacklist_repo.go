package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fraud-risk-engine/internal/domain/risk"
)

// BlacklistEntryModel is the database model for blacklist entries
type BlacklistEntryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntityType  string    `gorm:"type:varchar(20);index:idx_blacklist_entity;not null"`
	EntityValue string    `gorm:"type:varchar(255);index:idx_blacklist_entity;not null"`
	Reason      string    `gorm:"type:text"`
	AddedBy     string    `gorm:"type:varchar(100)"`
	IsActive    bool      `gorm:"index;not null"`
	ExpiresAt   *time.Time
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for blacklist entries
func (BlacklistEntryModel) TableName() string {
	return "blacklist_entries"
}

// BlacklistRepository implements risk.BlacklistRepository
type BlacklistRepository struct {
	db *gorm.DB
}

// NewBlacklistRepository creates a new blacklist repository
func NewBlacklistRepository(client *Client) *BlacklistRepository {
	return &BlacklistRepository{db: client.DB()}
}

// Create stores a blacklist entry
func (r *BlacklistRepository) Create(ctx context.Context, entry *risk.BlacklistEntry) error {
	return r.db.WithContext(ctx).Create(blacklistToModel(entry)).Error
}

// FindActive returns entries for an entity value where is_active is set.
// Expiry is not consulted here; expired-but-active entries still match.
func (r *BlacklistRepository) FindActive(ctx context.Context, entityType risk.EntityType, entityValue string) ([]*risk.BlacklistEntry, error) {
	var models []BlacklistEntryModel
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_value = ? AND is_active = ?", string(entityType), entityValue, true).
		Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]*risk.BlacklistEntry, len(models))
	for i, m := range models {
		entries[i] = modelToBlacklist(&m)
	}
	return entries, nil
}

func blacklistToModel(entry *risk.BlacklistEntry) *BlacklistEntryModel {
	return &BlacklistEntryModel{
		ID:          entry.ID,
		EntityType:  string(entry.EntityType),
		EntityValue: entry.EntityValue,
		Reason:      entry.Reason,
		AddedBy:     entry.AddedBy,
		IsActive:    entry.IsActive,
		ExpiresAt:   entry.ExpiresAt,
		CreatedAt:   entry.CreatedAt,
	}
}

func modelToBlacklist(m *BlacklistEntryModel) *risk.BlacklistEntry {
	return &risk.BlacklistEntry{
		ID:          m.ID,
		EntityType:  risk.EntityType(m.EntityType),
		EntityValue: m.EntityValue,
		Reason:      m.Reason,
		AddedBy:     m.AddedBy,
		IsActive:    m.IsActive,
		ExpiresAt:   m.ExpiresAt,
		CreatedAt:   m.CreatedAt,
	}
}
