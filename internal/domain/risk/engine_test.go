package risk_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fraud-risk-engine/internal/domain/risk"
	"fraud-risk-engine/internal/infrastructure/memory"
)

func newTestEngine(t *testing.T, opts risk.Options) (*risk.Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, store, nil, opts)
	return engine, store
}

func seedActivity(t *testing.T, store *memory.Store, userID uuid.UUID, activityType risk.ActivityType, age time.Duration, mutate func(*risk.ActivityRecord)) {
	t.Helper()
	rec := risk.NewActivityRecord(risk.ActivityInput{UserID: userID, Type: activityType}, 0, false)
	rec.CreatedAt = time.Now().UTC().Add(-age)
	if mutate != nil {
		mutate(rec)
	}
	require.NoError(t, store.RecordEvaluation(context.Background(), rec, nil))
}

func blacklistValue(t *testing.T, store *memory.Store, entityType risk.EntityType, value string) {
	t.Helper()
	entry := risk.NewBlacklistEntry(entityType, value, "test", "ops", nil)
	require.NoError(t, store.Blacklist().Create(context.Background(), entry))
}

func TestEvaluateRejectsMissingFields(t *testing.T) {
	engine, _ := newTestEngine(t, risk.Options{})

	_, err := engine.Evaluate(context.Background(), risk.ActivityInput{Type: risk.ActivityLogin})
	assert.ErrorIs(t, err, risk.ErrMissingUserID)

	_, err = engine.Evaluate(context.Background(), risk.ActivityInput{UserID: uuid.New()})
	assert.ErrorIs(t, err, risk.ErrMissingActivity)
}

func TestEvaluateCleanActivity(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: userID,
		Type:   risk.ActivityProfileUpdate,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, decision.RiskScore)
	assert.False(t, decision.IsRisky)
	assert.False(t, decision.ShouldBlock)

	// The record is persisted even for clean activity
	records, err := store.ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Flagged)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestSolitaryBlacklistedIPIsNotRisky(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:    userID,
		Type:      risk.ActivityProfileUpdate,
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)

	assert.Equal(t, 50, decision.RiskScore)
	assert.False(t, decision.IsRisky)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestTenthLoginInWindowScoresVelocityOnly(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	for i := 0; i < 9; i++ {
		seedActivity(t, store, userID, risk.ActivityLogin, 5*time.Minute, nil)
	}

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: userID,
		Type:   risk.ActivityLogin,
	})
	require.NoError(t, err)

	assert.Equal(t, 30, decision.RiskScore)
	assert.False(t, decision.IsRisky)
	assert.False(t, decision.ShouldBlock)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	records, err := store.ListRecent(context.Background(), userID, 20)
	require.NoError(t, err)
	require.Len(t, records, 10)
	assert.False(t, records[0].Flagged)
}

func TestNinthLoginStaysBelowVelocityLimit(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	for i := 0; i < 8; i++ {
		seedActivity(t, store, userID, risk.ActivityLogin, 5*time.Minute, nil)
	}

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: userID,
		Type:   risk.ActivityLogin,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, decision.RiskScore)
}

func TestBlacklistedIPWithNewDeviceRaisesMediumAlert(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:            userID,
		Type:              risk.ActivityProfileUpdate,
		IPAddress:         "203.0.113.9",
		DeviceFingerprint: "fp-unknown",
		UserAgent:         "agent-unknown",
	})
	require.NoError(t, err)

	// 50 blacklisted IP + 15 new device + 10 new user agent
	assert.Equal(t, 75, decision.RiskScore)
	assert.True(t, decision.IsRisky)
	assert.False(t, decision.ShouldBlock)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, risk.AlertDeviceChange, alerts[0].Type)
	assert.Equal(t, 75, alerts[0].RiskScore)
	assert.Equal(t, userID, alerts[0].UserID)
	assert.False(t, alerts[0].IsResolved)

	records, err := store.ListRecent(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Flagged)
}

func TestScoreClampsAtHundredAndBlocks(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")
	blacklistValue(t, store, risk.EntityDevice, "fp-banned")

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:            userID,
		Type:              risk.ActivityProfileUpdate,
		IPAddress:         "203.0.113.9",
		DeviceFingerprint: "fp-banned",
	})
	require.NoError(t, err)

	// 50 + 40 + 15 new device = 105, clamped
	assert.Equal(t, 100, decision.RiskScore)
	assert.True(t, decision.IsRisky)
	assert.True(t, decision.ShouldBlock)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.SeverityCritical, alerts[0].Severity)
}

func TestExactRiskyThresholdFlags(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")

	// 50 blacklisted IP + 10 new user agent lands exactly on the threshold
	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:    userID,
		Type:      risk.ActivityProfileUpdate,
		IPAddress: "203.0.113.9",
		UserAgent: "agent-unknown",
	})
	require.NoError(t, err)

	assert.Equal(t, 60, decision.RiskScore)
	assert.True(t, decision.IsRisky)
	assert.False(t, decision.ShouldBlock)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.SeverityMedium, alerts[0].Severity)
}

func TestExactBlockThresholdBlocks(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")
	blacklistValue(t, store, risk.EntityDevice, "fp-banned")

	// The fingerprint is already in history, so only the blacklist signals
	// and one flagged record fire: 50 + 40 + 5 = 95
	seedActivity(t, store, userID, risk.ActivityLogin, time.Hour, func(rec *risk.ActivityRecord) {
		rec.DeviceFingerprint = "fp-banned"
		rec.Flagged = true
	})

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:            userID,
		Type:              risk.ActivityProfileUpdate,
		IPAddress:         "203.0.113.9",
		DeviceFingerprint: "fp-banned",
	})
	require.NoError(t, err)

	assert.Equal(t, 95, decision.RiskScore)
	assert.True(t, decision.ShouldBlock)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.SeverityCritical, alerts[0].Severity)
}

func TestVelocityAlertTypeTakesPrecedence(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")
	for i := 0; i < 9; i++ {
		seedActivity(t, store, userID, risk.ActivityLogin, 5*time.Minute, nil)
	}

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:            userID,
		Type:              risk.ActivityLogin,
		IPAddress:         "203.0.113.9",
		DeviceFingerprint: "fp-unknown",
	})
	require.NoError(t, err)
	assert.True(t, decision.IsRisky)

	alerts, err := store.List(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.AlertVelocityCheck, alerts[0].Type)
}

type errCounter struct{}

func (errCounter) CountByUserAndType(context.Context, uuid.UUID, risk.ActivityType, time.Time) (int64, error) {
	return 0, errors.New("counter unavailable")
}

func TestFailOpenDropsBrokenCheck(t *testing.T) {
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, store, errCounter{}, risk.Options{})
	userID := uuid.New()
	for i := 0; i < 20; i++ {
		seedActivity(t, store, userID, risk.ActivityLogin, 5*time.Minute, nil)
	}

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: userID,
		Type:   risk.ActivityLogin,
	})
	require.NoError(t, err)

	// Velocity would have fired, but its counter is down
	assert.Equal(t, 0, decision.RiskScore)

	records, err := store.ListRecent(context.Background(), userID, 50)
	require.NoError(t, err)
	assert.Len(t, records, 21)
}

func TestFailClosedSurfacesCheckError(t *testing.T) {
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, store, errCounter{}, risk.Options{FailClosed: true})

	_, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: uuid.New(),
		Type:   risk.ActivityLogin,
	})
	assert.ErrorIs(t, err, risk.ErrCheckFailed)
}

type errRecorder struct{}

func (errRecorder) RecordEvaluation(context.Context, *risk.ActivityRecord, *risk.FraudAlert) error {
	return errors.New("database unavailable")
}

func TestRecordFailureStillReturnsDecisionWhenFailOpen(t *testing.T) {
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, errRecorder{}, nil, risk.Options{})

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: uuid.New(),
		Type:   risk.ActivityLogin,
	})
	require.NoError(t, err)
	assert.NotNil(t, decision)
}

func TestRecordFailureErrorsWhenFailClosed(t *testing.T) {
	store := memory.NewStore()
	engine := risk.NewEngine(store, store.Blacklist(), store, errRecorder{}, nil, risk.Options{FailClosed: true})

	_, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID: uuid.New(),
		Type:   risk.ActivityLogin,
	})
	assert.Error(t, err)
}

func TestCustomThresholds(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{RiskyThreshold: 40, BlockThreshold: 45})
	userID := uuid.New()
	blacklistValue(t, store, risk.EntityIP, "203.0.113.9")

	decision, err := engine.Evaluate(context.Background(), risk.ActivityInput{
		UserID:    userID,
		Type:      risk.ActivityProfileUpdate,
		IPAddress: "203.0.113.9",
	})
	require.NoError(t, err)
	assert.True(t, decision.IsRisky)
	assert.True(t, decision.ShouldBlock)
}

func TestAddToBlacklistValidation(t *testing.T) {
	engine, _ := newTestEngine(t, risk.Options{})
	ctx := context.Background()

	err := engine.AddToBlacklist(ctx, "PASSPORT", "x", "reason", "ops", nil)
	assert.ErrorIs(t, err, risk.ErrInvalidEntityType)

	err = engine.AddToBlacklist(ctx, risk.EntityEmail, "", "reason", "ops", nil)
	assert.ErrorIs(t, err, risk.ErrEmptyEntityValue)

	err = engine.AddToBlacklist(ctx, risk.EntityEmail, "mule@example.com", "chargeback ring", "ops", nil)
	assert.NoError(t, err)
}

func TestCheckPaymentMismatch(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	userID := uuid.New()
	ctx := context.Background()

	// A one-cent difference is rounding noise
	err := engine.CheckPaymentMismatch(ctx, userID,
		decimal.RequireFromString("100.00"), decimal.RequireFromString("99.99"), "card", nil)
	require.NoError(t, err)

	alerts, err := store.List(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	err = engine.CheckPaymentMismatch(ctx, userID,
		decimal.RequireFromString("100.00"), decimal.RequireFromString("99.98"), "card", map[string]string{"order_id": "o-1"})
	require.NoError(t, err)

	alerts, err = store.List(ctx, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, risk.AlertPaymentMismatch, alerts[0].Type)
	assert.Equal(t, risk.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, 75, alerts[0].RiskScore)
	assert.Equal(t, "100.00", alerts[0].Metadata["expected_amount"])
	assert.Equal(t, "o-1", alerts[0].Metadata["order_id"])
}

func TestResolveAlert(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	ctx := context.Background()
	userID := uuid.New()
	reviewerID := uuid.New()

	alert := risk.NewFraudAlert(userID, risk.AlertSuspiciousActivity, risk.SeverityMedium, "odd hours", 62)
	require.NoError(t, store.Create(ctx, alert))

	resolved, err := engine.ResolveAlert(ctx, alert.ID, reviewerID, "confirmed legitimate")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, reviewerID, *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, "confirmed legitimate", resolved.Resolution)

	_, err = engine.ResolveAlert(ctx, alert.ID, reviewerID, "again")
	assert.ErrorIs(t, err, risk.ErrAlertAlreadyResolved)

	_, err = engine.ResolveAlert(ctx, uuid.New(), reviewerID, "missing")
	assert.ErrorIs(t, err, risk.ErrAlertNotFound)
}

func TestListAlertsFiltersByResolution(t *testing.T) {
	engine, store := newTestEngine(t, risk.Options{})
	ctx := context.Background()

	open := risk.NewFraudAlert(uuid.New(), risk.AlertSuspiciousActivity, risk.SeverityMedium, "open", 62)
	require.NoError(t, store.Create(ctx, open))

	closed := risk.NewFraudAlert(uuid.New(), risk.AlertSuspiciousActivity, risk.SeverityMedium, "closed", 64)
	require.NoError(t, closed.Resolve(uuid.New(), "done"))
	require.NoError(t, store.Create(ctx, closed))

	f := false
	alerts, err := engine.ListAlerts(ctx, &f, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, open.ID, alerts[0].ID)

	tr := true
	alerts, err = engine.ListAlerts(ctx, &tr, 10, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, closed.ID, alerts[0].ID)

	alerts, err = engine.ListAlerts(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)
}
