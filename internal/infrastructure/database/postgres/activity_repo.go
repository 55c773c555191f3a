package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fraud-risk-engine/internal/domain/risk"
)

// ActivityModel is the database model for activity records
type ActivityModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID `gorm:"type:uuid;index:idx_activities_user_created;not null"`
	ActivityType      string    `gorm:"type:varchar(30);index;not null"`
	IPAddress         string    `gorm:"type:varchar(45)"`
	UserAgent         string    `gorm:"type:text"`
	DeviceFingerprint string    `gorm:"type:varchar(128);index"`
	Location          string    `gorm:"type:jsonb"`
	SessionID         string    `gorm:"type:varchar(100)"`
	RiskScore         int       `gorm:"not null"`
	Flagged           bool      `gorm:"index;not null"`
	Metadata          string    `gorm:"type:jsonb"`
	CreatedAt         time.Time `gorm:"index:idx_activities_user_created;not null"`
}

// TableName returns the table name for activity records
func (ActivityModel) TableName() string {
	return "activity_records"
}

// ActivityRepository implements risk.ActivityRepository and risk.Recorder
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(client *Client) *ActivityRepository {
	return &ActivityRepository{db: client.DB()}
}

// RecordEvaluation writes the activity record and, when present, the fraud
// alert inside a single transaction
func (r *ActivityRepository) RecordEvaluation(ctx context.Context, record *risk.ActivityRecord, alert *risk.FraudAlert) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(activityToModel(record)).Error; err != nil {
			return err
		}
		if alert != nil {
			if err := tx.Create(alertToModel(alert)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CountByUserAndType counts activities of one type since a point in time
func (r *ActivityRepository) CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType risk.ActivityType, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ActivityModel{}).
		Where("user_id = ? AND activity_type = ? AND created_at >= ?", userID, string(activityType), since).
		Count(&count).Error
	return count, err
}

// ListRecent returns the newest activities for a user
func (r *ActivityRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*risk.ActivityRecord, error) {
	var models []ActivityModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToActivities(models), nil
}

// ListRecentWithLocation returns the newest activities that carry a
// location country
func (r *ActivityRepository) ListRecentWithLocation(ctx context.Context, userID uuid.UUID, limit int) ([]*risk.ActivityRecord, error) {
	var models []ActivityModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND location IS NOT NULL AND location->>'country' <> ''", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToActivities(models), nil
}

// CountFlagged counts flagged activities since a point in time
func (r *ActivityRepository) CountFlagged(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ActivityModel{}).
		Where("user_id = ? AND flagged = ? AND created_at >= ?", userID, true, since).
		Count(&count).Error
	return count, err
}

func activityToModel(rec *risk.ActivityRecord) *ActivityModel {
	location := "null"
	if rec.Location != nil {
		if b, err := json.Marshal(rec.Location); err == nil {
			location = string(b)
		}
	}
	metadata := "{}"
	if len(rec.Metadata) > 0 {
		if b, err := json.Marshal(rec.Metadata); err == nil {
			metadata = string(b)
		}
	}

	return &ActivityModel{
		ID:                rec.ID,
		UserID:            rec.UserID,
		ActivityType:      string(rec.Type),
		IPAddress:         rec.IPAddress,
		UserAgent:         rec.UserAgent,
		DeviceFingerprint: rec.DeviceFingerprint,
		Location:          location,
		SessionID:         rec.SessionID,
		RiskScore:         rec.RiskScore,
		Flagged:           rec.Flagged,
		Metadata:          metadata,
		CreatedAt:         rec.CreatedAt,
	}
}

func modelToActivity(m *ActivityModel) *risk.ActivityRecord {
	var location *risk.Location
	if m.Location != "" && m.Location != "null" {
		location = &risk.Location{}
		if err := json.Unmarshal([]byte(m.Location), location); err != nil {
			location = nil
		}
	}
	var metadata map[string]string
	json.Unmarshal([]byte(m.Metadata), &metadata)

	return &risk.ActivityRecord{
		ID:                m.ID,
		UserID:            m.UserID,
		Type:              risk.ActivityType(m.ActivityType),
		IPAddress:         m.IPAddress,
		UserAgent:         m.UserAgent,
		DeviceFingerprint: m.DeviceFingerprint,
		Location:          location,
		SessionID:         m.SessionID,
		RiskScore:         m.RiskScore,
		Flagged:           m.Flagged,
		Metadata:          metadata,
		CreatedAt:         m.CreatedAt,
	}
}

func modelsToActivities(models []ActivityModel) []*risk.ActivityRecord {
	records := make([]*risk.ActivityRecord, len(models))
	for i, m := range models {
		records[i] = modelToActivity(&m)
	}
	return records
}
