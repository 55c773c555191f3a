// Package middleware provides HTTP middleware for services that embed the
// risk engine in front of their own endpoints.
package middleware

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	riskapp "fraud-risk-engine/internal/application/risk"
	"fraud-risk-engine/internal/domain/risk"
)

type contextKey string

const userIDKey contextKey = "risk.user_id"

// WithUserID attaches the authenticated user ID to the request context.
// Auth middleware is expected to call this before RiskGate runs.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID, if any
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RiskGate evaluates a request against the risk engine before letting it
// through. Requests without an authenticated user pass untouched; blocked
// users get a 403 with the score, risky-but-allowed requests are annotated
// with response headers so downstream handlers can demand step-up auth.
type RiskGate struct {
	evaluate     *riskapp.EvaluateActivityUseCase
	activityType risk.ActivityType
	failClosed   bool
	logger       *zap.Logger
}

// NewRiskGate creates a gate for one activity type
func NewRiskGate(evaluate *riskapp.EvaluateActivityUseCase, activityType risk.ActivityType, failClosed bool, logger *zap.Logger) *RiskGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskGate{
		evaluate:     evaluate,
		activityType: activityType,
		failClosed:   failClosed,
		logger:       logger,
	}
}

// Wrap returns next guarded by the gate
func (g *RiskGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			// Unauthenticated traffic is not gated
			next.ServeHTTP(w, r)
			return
		}

		input := riskapp.EvaluateActivityInput{
			UserID:            userID,
			Type:              g.activityType,
			IPAddress:         clientIP(r),
			UserAgent:         r.UserAgent(),
			DeviceFingerprint: r.Header.Get("X-Device-Fingerprint"),
			Location:          parseGeoHeader(r.Header.Get("X-Geo-Location")),
			SessionID:         r.Header.Get("X-Session-ID"),
		}

		decision, err := g.evaluate.Execute(r.Context(), input)
		if err != nil {
			if g.failClosed {
				writeGateError(w, http.StatusServiceUnavailable, "Risk evaluation unavailable")
				return
			}
			g.logger.Warn("risk gate evaluation failed, letting request through",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if decision.ShouldBlock {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":     "Request blocked for security reasons",
				"code":      "FRAUD_DETECTION_BLOCK",
				"riskScore": decision.RiskScore,
			})
			return
		}

		if decision.IsRisky {
			w.Header().Set("X-Risk-Level", "HIGH")
			w.Header().Set("X-Risk-Score", strconv.Itoa(decision.RiskScore))
		}

		next.ServeHTTP(w, r)
	})
}

// parseGeoHeader decodes the upstream geo resolution header. A malformed
// header is treated the same as no header.
func parseGeoHeader(raw string) *risk.Location {
	if raw == "" {
		return nil
	}
	var loc risk.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return nil
	}
	if loc.Country == "" && loc.City == "" {
		return nil
	}
	return &loc
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeGateError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
