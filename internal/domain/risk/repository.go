package risk

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityRepository reads the append-only activity history
type ActivityRepository interface {
	// CountByUserAndType counts activities of one type for a user with
	// created_at >= since
	CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType ActivityType, since time.Time) (int64, error)

	// ListRecent returns the most recent activities for a user,
	// newest first
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*ActivityRecord, error)

	// ListRecentWithLocation returns the most recent activities that carry
	// a location country, newest first
	ListRecentWithLocation(ctx context.Context, userID uuid.UUID, limit int) ([]*ActivityRecord, error)

	// CountFlagged counts flagged activities for a user with
	// created_at >= since
	CountFlagged(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)
}

// Recorder persists the outcome of one evaluation. The activity record and
// the alert (nil when the evaluation was not risky) are written in a single
// transaction so an alert is never silently lost after its activity lands.
type Recorder interface {
	RecordEvaluation(ctx context.Context, record *ActivityRecord, alert *FraudAlert) error
}

// AlertRepository manages fraud alerts
type AlertRepository interface {
	Create(ctx context.Context, alert *FraudAlert) error
	GetByID(ctx context.Context, id uuid.UUID) (*FraudAlert, error)
	Update(ctx context.Context, alert *FraudAlert) error

	// List returns alerts filtered by resolution state, newest first.
	// resolved == nil returns both.
	List(ctx context.Context, resolved *bool, limit, offset int) ([]*FraudAlert, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*FraudAlert, error)
}

// BlacklistRepository manages banned entities
type BlacklistRepository interface {
	Create(ctx context.Context, entry *BlacklistEntry) error

	// FindActive returns entries for the value with is_active = true.
	// Expiry is intentionally not part of the filter; see BlacklistEntry.IsEffective.
	FindActive(ctx context.Context, entityType EntityType, entityValue string) ([]*BlacklistEntry, error)
}

// ActivityCounter is the read path the velocity check depends on. The
// Postgres activity repository satisfies it; a redis sorted-set counter can
// be swapped in as a fast path on the hot gating call.
type ActivityCounter interface {
	CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType ActivityType, since time.Time) (int64, error)
}
