package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fraud-risk-engine/internal/domain/risk"
)

// FraudAlertModel is the database model for fraud alerts
type FraudAlertModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	AlertType   string     `gorm:"type:varchar(30);index;not null"`
	Severity    string     `gorm:"type:varchar(10);not null"`
	Description string     `gorm:"type:text"`
	Metadata    string     `gorm:"type:jsonb"`
	RiskScore   int        `gorm:"not null"`
	IsResolved  bool       `gorm:"index;not null"`
	ResolvedBy  *uuid.UUID `gorm:"type:uuid"`
	ResolvedAt  *time.Time
	Resolution  string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"index;not null"`
}

// TableName returns the table name for fraud alerts
func (FraudAlertModel) TableName() string {
	return "fraud_alerts"
}

// AlertRepository implements risk.AlertRepository
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(client *Client) *AlertRepository {
	return &AlertRepository{db: client.DB()}
}

// Create stores a fraud alert
func (r *AlertRepository) Create(ctx context.Context, alert *risk.FraudAlert) error {
	return r.db.WithContext(ctx).Create(alertToModel(alert)).Error
}

// GetByID retrieves an alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*risk.FraudAlert, error) {
	var model FraudAlertModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, risk.ErrAlertNotFound
		}
		return nil, err
	}
	return modelToAlert(&model), nil
}

// Update persists resolution fields set by the review workflow
func (r *AlertRepository) Update(ctx context.Context, alert *risk.FraudAlert) error {
	return r.db.WithContext(ctx).Model(&FraudAlertModel{}).
		Where("id = ?", alert.ID).
		Updates(map[string]interface{}{
			"is_resolved": alert.IsResolved,
			"resolved_by": alert.ResolvedBy,
			"resolved_at": alert.ResolvedAt,
			"resolution":  alert.Resolution,
		}).Error
}

// List retrieves alerts filtered by resolution state, newest first
func (r *AlertRepository) List(ctx context.Context, resolved *bool, limit, offset int) ([]*risk.FraudAlert, error) {
	query := r.db.WithContext(ctx).Model(&FraudAlertModel{})
	if resolved != nil {
		query = query.Where("is_resolved = ?", *resolved)
	}

	var models []FraudAlertModel
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToAlerts(models), nil
}

// ListByUser retrieves alerts for a user, newest first
func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*risk.FraudAlert, error) {
	var models []FraudAlertModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&models).Error; err != nil {
		return nil, err
	}
	return modelsToAlerts(models), nil
}

func alertToModel(alert *risk.FraudAlert) *FraudAlertModel {
	metadata := "{}"
	if len(alert.Metadata) > 0 {
		if b, err := json.Marshal(alert.Metadata); err == nil {
			metadata = string(b)
		}
	}

	return &FraudAlertModel{
		ID:          alert.ID,
		UserID:      alert.UserID,
		AlertType:   string(alert.Type),
		Severity:    string(alert.Severity),
		Description: alert.Description,
		Metadata:    metadata,
		RiskScore:   alert.RiskScore,
		IsResolved:  alert.IsResolved,
		ResolvedBy:  alert.ResolvedBy,
		ResolvedAt:  alert.ResolvedAt,
		Resolution:  alert.Resolution,
		CreatedAt:   alert.CreatedAt,
	}
}

func modelToAlert(m *FraudAlertModel) *risk.FraudAlert {
	var metadata map[string]string
	json.Unmarshal([]byte(m.Metadata), &metadata)

	return &risk.FraudAlert{
		ID:          m.ID,
		UserID:      m.UserID,
		Type:        risk.AlertType(m.AlertType),
		Severity:    risk.Severity(m.Severity),
		Description: m.Description,
		Metadata:    metadata,
		RiskScore:   m.RiskScore,
		IsResolved:  m.IsResolved,
		ResolvedBy:  m.ResolvedBy,
		ResolvedAt:  m.ResolvedAt,
		Resolution:  m.Resolution,
		CreatedAt:   m.CreatedAt,
	}
}

func modelsToAlerts(models []FraudAlertModel) []*risk.FraudAlert {
	alerts := make([]*risk.FraudAlert, len(models))
	for i, m := range models {
		alerts[i] = modelToAlert(&m)
	}
	return alerts
}
