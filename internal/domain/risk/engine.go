package risk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fraud-risk-engine/internal/pkg/metrics"
)

const (
	defaultRiskyThreshold = 60
	defaultBlockThreshold = 95

	maxRiskScore = 100

	paymentMismatchScore = 75
)

// mismatchTolerance is the largest expected/actual difference that is still
// considered rounding noise rather than a mismatch.
var mismatchTolerance = decimal.New(1, -2) // 0.01

// Options tunes an Engine. Zero values fall back to the stock thresholds,
// the default velocity limits, and a no-op logger.
type Options struct {
	VelocityLimits map[ActivityType]VelocityLimit
	RiskyThreshold int
	BlockThreshold int

	// FailClosed surfaces check and persistence failures as evaluation
	// errors instead of swallowing them. The default (fail-open) favors
	// availability of the guarded action over audit completeness.
	FailClosed bool

	Logger *zap.Logger
}

// Engine orchestrates the check modules over one activity, aggregates and
// clamps the score, classifies severity, persists the outcome, and returns
// the decision. One Engine serves all requests; it holds no per-request
// state beyond the injected stores.
type Engine struct {
	activities ActivityRepository
	blacklist  BlacklistRepository
	alerts     AlertRepository
	recorder   Recorder
	checks     []Check

	riskyThreshold int
	blockThreshold int
	failClosed     bool

	logger *zap.Logger
	now    func() time.Time
}

// NewEngine wires the five check modules against the given stores. counter
// backs the velocity check; pass the activity repository itself, or a redis
// counter for the fast path.
func NewEngine(
	activities ActivityRepository,
	blacklist BlacklistRepository,
	alerts AlertRepository,
	recorder Recorder,
	counter ActivityCounter,
	opts Options,
) *Engine {
	if counter == nil {
		counter = activities
	}
	if opts.RiskyThreshold == 0 {
		opts.RiskyThreshold = defaultRiskyThreshold
	}
	if opts.BlockThreshold == 0 {
		opts.BlockThreshold = defaultBlockThreshold
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Engine{
		activities: activities,
		blacklist:  blacklist,
		alerts:     alerts,
		recorder:   recorder,
		checks: []Check{
			NewBlacklistCheck(blacklist),
			NewVelocityCheck(counter, opts.VelocityLimits),
			NewLocationAnomalyCheck(activities),
			NewDeviceAnomalyCheck(activities),
			NewBehaviorHistoryCheck(activities),
		},
		riskyThreshold: opts.RiskyThreshold,
		blockThreshold: opts.BlockThreshold,
		failClosed:     opts.FailClosed,
		logger:         opts.Logger,
		now:            time.Now,
	}
}

// Evaluate scores one activity and persists the outcome. The activity
// record is written whether or not the activity is risky; a fraud alert is
// written in the same transaction when it is.
//
// Checks run concurrently against the same history snapshot. There is no
// lock spanning read-history/score/persist, so two concurrent evaluations
// for the same user can both see the pre-increment velocity count. That is
// an accepted property of an advisory system, not a defect to fix here.
func (e *Engine) Evaluate(ctx context.Context, input ActivityInput) (*Decision, error) {
	start := e.now()

	if input.UserID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	if input.Type == "" {
		return nil, ErrMissingActivity
	}

	results := make([]CheckResult, len(e.checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range e.checks {
		g.Go(func() error {
			res, err := check.Run(gctx, input)
			if err != nil {
				if e.failClosed {
					return fmt.Errorf("%s check: %w", check.Name(), err)
				}
				// Fail-open: a broken check contributes nothing.
				metrics.CheckFailuresTotal.WithLabelValues(check.Name()).Inc()
				e.logger.Warn("risk check failed, dropping its contribution",
					zap.String("check", check.Name()),
					zap.String("user_id", input.UserID.String()),
					zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}

	total := 0
	var reasons []Reason
	for _, res := range results {
		total += res.Score
		reasons = append(reasons, res.Reasons...)
	}
	if total > maxRiskScore {
		total = maxRiskScore
	}
	if total < 0 {
		total = 0
	}

	isRisky := total >= e.riskyThreshold
	shouldBlock := total >= e.blockThreshold

	record := NewActivityRecord(input, total, isRisky)
	var alert *FraudAlert
	if isRisky {
		alert = e.buildAlert(input.UserID, total, reasons)
	}

	if err := e.recorder.RecordEvaluation(ctx, record, alert); err != nil {
		if e.failClosed {
			metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("record evaluation: %w", err)
		}
		// Fail-open: losing the audit trail must not block the action.
		metrics.RecordFailuresTotal.Inc()
		e.logger.Error("failed to persist evaluation outcome",
			zap.String("user_id", input.UserID.String()),
			zap.String("activity_type", string(input.Type)),
			zap.Int("risk_score", total),
			zap.Error(err))
	} else if alert != nil {
		metrics.AlertsCreatedTotal.WithLabelValues(string(alert.Type)).Inc()
	}

	messages := make([]string, len(reasons))
	for i, r := range reasons {
		messages[i] = r.Message
	}

	switch {
	case shouldBlock:
		metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeBlocked).Inc()
	case isRisky:
		metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeRisky).Inc()
	default:
		metrics.EvaluationsTotal.WithLabelValues(metrics.OutcomeAllowed).Inc()
	}
	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	return &Decision{
		IsRisky:     isRisky,
		RiskScore:   total,
		Alerts:      messages,
		ShouldBlock: shouldBlock,
	}, nil
}

// AddToBlacklist appends a ban for an entity value. Entries are never
// merged; duplicates each apply independently.
func (e *Engine) AddToBlacklist(ctx context.Context, entityType EntityType, entityValue, reason, addedBy string, expiresAt *time.Time) error {
	switch entityType {
	case EntityEmail, EntityPhone, EntityIP, EntityDevice, EntityBankAccount:
	default:
		return ErrInvalidEntityType
	}
	if entityValue == "" {
		return ErrEmptyEntityValue
	}

	entry := NewBlacklistEntry(entityType, entityValue, reason, addedBy, expiresAt)
	if err := e.blacklist.Create(ctx, entry); err != nil {
		return fmt.Errorf("add blacklist entry: %w", err)
	}

	e.logger.Info("blacklist entry added",
		zap.String("entity_type", string(entityType)),
		zap.String("added_by", addedBy))
	return nil
}

// CheckPaymentMismatch raises a fraud alert when the settled amount differs
// from the expected amount beyond rounding tolerance. This gate runs after
// gateway verification, outside the aggregate evaluation flow.
func (e *Engine) CheckPaymentMismatch(ctx context.Context, userID uuid.UUID, expected, actual decimal.Decimal, paymentMethod string, metadata map[string]string) error {
	diff := expected.Sub(actual).Abs()
	if !diff.GreaterThan(mismatchTolerance) {
		return nil
	}

	alert := NewFraudAlert(userID, AlertPaymentMismatch, SeverityHigh,
		fmt.Sprintf("payment amount mismatch: expected %s, settled %s via %s",
			expected.String(), actual.String(), paymentMethod),
		paymentMismatchScore)
	alert.Metadata["expected_amount"] = expected.String()
	alert.Metadata["actual_amount"] = actual.String()
	alert.Metadata["payment_method"] = paymentMethod
	for k, v := range metadata {
		alert.Metadata[k] = v
	}

	if err := e.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("create payment mismatch alert: %w", err)
	}
	metrics.AlertsCreatedTotal.WithLabelValues(string(AlertPaymentMismatch)).Inc()

	e.logger.Warn("payment mismatch detected",
		zap.String("user_id", userID.String()),
		zap.String("expected", expected.String()),
		zap.String("actual", actual.String()))
	return nil
}

// ListAlerts returns alerts filtered by resolution state, newest first
func (e *Engine) ListAlerts(ctx context.Context, resolved *bool, limit, offset int) ([]*FraudAlert, error) {
	return e.alerts.List(ctx, resolved, limit, offset)
}

// ResolveAlert marks an alert as handled by a reviewer
func (e *Engine) ResolveAlert(ctx context.Context, alertID, reviewerID uuid.UUID, resolution string) (*FraudAlert, error) {
	alert, err := e.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := alert.Resolve(reviewerID, resolution); err != nil {
		return nil, err
	}
	if err := e.alerts.Update(ctx, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// RecentActivity returns the newest activity records for a user
func (e *Engine) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]*ActivityRecord, error) {
	return e.activities.ListRecent(ctx, userID, limit)
}

func (e *Engine) buildAlert(userID uuid.UUID, score int, reasons []Reason) *FraudAlert {
	messages := make([]string, len(reasons))
	for i, r := range reasons {
		messages[i] = r.Message
	}

	alert := NewFraudAlert(userID, alertTypeFor(reasons), severityFor(score),
		strings.Join(messages, "; "), score)
	for _, r := range reasons {
		alert.Metadata[string(r.Code)] = r.Message
	}
	return alert
}

// severityFor maps an aggregate score to an alert severity band. The LOW
// branch is only reachable if an alert is ever created below the risky
// threshold; it is kept as a defensive default.
func severityFor(score int) Severity {
	switch {
	case score >= 95:
		return SeverityCritical
	case score >= 80:
		return SeverityHigh
	case score < 60:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
