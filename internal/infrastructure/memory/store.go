// Package memory provides in-memory implementations of the risk
// repositories. They back the standalone mode of cmd/api when Postgres is
// unreachable, and the package-level tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fraud-risk-engine/internal/domain/risk"
)

// Store implements every risk repository interface over in-process maps.
// All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	activities []*risk.ActivityRecord
	alerts     map[uuid.UUID]*risk.FraudAlert
	blacklist  []*risk.BlacklistEntry
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		alerts: make(map[uuid.UUID]*risk.FraudAlert),
	}
}

// --- risk.ActivityRepository ---

func (s *Store) CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType risk.ActivityType, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.activities {
		if rec.UserID == userID && rec.Type == activityType && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*risk.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRecent(userID, limit, false), nil
}

func (s *Store) ListRecentWithLocation(ctx context.Context, userID uuid.UUID, limit int) ([]*risk.ActivityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRecent(userID, limit, true), nil
}

func (s *Store) listRecent(userID uuid.UUID, limit int, withLocation bool) []*risk.ActivityRecord {
	matched := make([]*risk.ActivityRecord, 0, limit)
	for _, rec := range s.activities {
		if rec.UserID != userID {
			continue
		}
		if withLocation && (rec.Location == nil || rec.Location.Country == "") {
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

func (s *Store) CountFlagged(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, rec := range s.activities {
		if rec.UserID == userID && rec.Flagged && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// --- risk.Recorder ---

func (s *Store) RecordEvaluation(ctx context.Context, record *risk.ActivityRecord, alert *risk.FraudAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activities = append(s.activities, record)
	if alert != nil {
		s.alerts[alert.ID] = alert
	}
	return nil
}

// --- risk.AlertRepository ---

func (s *Store) Create(ctx context.Context, alert *risk.FraudAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts[alert.ID] = alert
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*risk.FraudAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if alert, ok := s.alerts[id]; ok {
		return alert, nil
	}
	return nil, risk.ErrAlertNotFound
}

func (s *Store) Update(ctx context.Context, alert *risk.FraudAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[alert.ID]; !ok {
		return risk.ErrAlertNotFound
	}
	s.alerts[alert.ID] = alert
	return nil
}

func (s *Store) List(ctx context.Context, resolved *bool, limit, offset int) ([]*risk.FraudAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*risk.FraudAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if resolved != nil && alert.IsResolved != *resolved {
			continue
		}
		matched = append(matched, alert)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*risk.FraudAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*risk.FraudAlert, 0, len(s.alerts))
	for _, alert := range s.alerts {
		if alert.UserID == userID {
			matched = append(matched, alert)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), nil
}

// --- risk.BlacklistRepository ---

// Blacklist returns the store's blacklist view. A separate type is needed
// because risk.AlertRepository and risk.BlacklistRepository both declare
// Create with different signatures.
func (s *Store) Blacklist() *BlacklistStore {
	return &BlacklistStore{s: s}
}

// BlacklistStore implements risk.BlacklistRepository over the same data
type BlacklistStore struct {
	s *Store
}

func (b *BlacklistStore) Create(ctx context.Context, entry *risk.BlacklistEntry) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	b.s.blacklist = append(b.s.blacklist, entry)
	return nil
}

func (b *BlacklistStore) FindActive(ctx context.Context, entityType risk.EntityType, entityValue string) ([]*risk.BlacklistEntry, error) {
	b.s.mu.RLock()
	defer b.s.mu.RUnlock()

	var matched []*risk.BlacklistEntry
	for _, entry := range b.s.blacklist {
		if entry.EntityType == entityType && entry.EntityValue == entityValue && entry.IsActive {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

func paginate(alerts []*risk.FraudAlert, limit, offset int) []*risk.FraudAlert {
	if offset >= len(alerts) {
		return nil
	}
	alerts = alerts[offset:]
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}
