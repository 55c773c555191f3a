package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fraud-risk-engine/internal/application/dto"
	"fraud-risk-engine/internal/domain/risk"
	"fraud-risk-engine/internal/infrastructure/cache/redis"
)

// EvaluateActivityInput contains the input for one risk evaluation
type EvaluateActivityInput struct {
	UserID            uuid.UUID
	Type              risk.ActivityType
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
	Location          *risk.Location
	SessionID         string
	Metadata          map[string]string
}

// EvaluateActivityUseCase drives one activity through the risk engine. It
// owns the evaluation timeout and the async fast-path counter update; the
// scoring itself lives in the domain engine.
type EvaluateActivityUseCase struct {
	engine  *risk.Engine
	counter *redis.ActivityCounter

	evaluationTimeout time.Duration
	logger            *zap.Logger
}

// NewEvaluateActivityUseCase creates a new evaluate activity use case.
// counter may be nil when Redis is not configured; the velocity check then
// counts straight from the activity store.
func NewEvaluateActivityUseCase(
	engine *risk.Engine,
	counter *redis.ActivityCounter,
	evaluationTimeout time.Duration,
	logger *zap.Logger,
) *EvaluateActivityUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluateActivityUseCase{
		engine:            engine,
		counter:           counter,
		evaluationTimeout: evaluationTimeout,
		logger:            logger,
	}
}

// Execute evaluates one activity and returns the decision
func (uc *EvaluateActivityUseCase) Execute(ctx context.Context, input EvaluateActivityInput) (*dto.DecisionResponse, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, uc.evaluationTimeout)
	defer cancel()

	decision, err := uc.engine.Evaluate(ctx, risk.ActivityInput{
		UserID:            input.UserID,
		Type:              input.Type,
		IPAddress:         input.IPAddress,
		UserAgent:         input.UserAgent,
		DeviceFingerprint: input.DeviceFingerprint,
		Location:          input.Location,
		SessionID:         input.SessionID,
		Metadata:          input.Metadata,
	})
	if err != nil {
		return nil, err
	}

	// Update the velocity fast path after the decision is made. The write is
	// best effort; the Postgres history remains the source of truth.
	if uc.counter != nil {
		go func() {
			bgCtx, bgCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer bgCancel()
			if err := uc.counter.Record(bgCtx, input.UserID, input.Type, time.Now().UTC()); err != nil {
				uc.logger.Warn("failed to record activity in velocity counter",
					zap.String("user_id", input.UserID.String()),
					zap.Error(err))
			}
		}()
	}

	return &dto.DecisionResponse{
		IsRisky:     decision.IsRisky,
		RiskScore:   decision.RiskScore,
		Alerts:      decision.Alerts,
		ShouldBlock: decision.ShouldBlock,
		LatencyMs:   time.Since(startTime).Milliseconds(),
	}, nil
}

// EvaluateActivityRequest is the API request structure
type EvaluateActivityRequest struct {
	UserID            string            `json:"user_id"`
	ActivityType      string            `json:"activity_type"`
	IPAddress         string            `json:"ip_address,omitempty"`
	UserAgent         string            `json:"user_agent,omitempty"`
	DeviceFingerprint string            `json:"device_fingerprint,omitempty"`
	Location          *LocationRequest  `json:"location,omitempty"`
	SessionID         string            `json:"session_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// LocationRequest represents location data in API request
type LocationRequest struct {
	Country   string  `json:"country"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ToInput converts the API request to use case input
func (r *EvaluateActivityRequest) ToInput() (*EvaluateActivityInput, error) {
	userID, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	if r.ActivityType == "" {
		return nil, risk.ErrMissingActivity
	}

	input := &EvaluateActivityInput{
		UserID:            userID,
		Type:              risk.ActivityType(r.ActivityType),
		IPAddress:         r.IPAddress,
		UserAgent:         r.UserAgent,
		DeviceFingerprint: r.DeviceFingerprint,
		SessionID:         r.SessionID,
		Metadata:          r.Metadata,
	}
	if r.Location != nil {
		input.Location = &risk.Location{
			Country:   r.Location.Country,
			City:      r.Location.City,
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
		}
	}
	return input, nil
}
