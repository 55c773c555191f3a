package router

import (
	"net/http"

	"fraud-risk-engine/internal/interfaces/http/handler"
)

// Router holds all HTTP handlers
type Router struct {
	mux           *http.ServeMux
	riskHandler   *handler.RiskHandler
	healthHandler *handler.HealthHandler
}

// NewRouter creates a new router with all routes configured
func NewRouter(
	riskHandler *handler.RiskHandler,
	healthHandler *handler.HealthHandler,
) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		riskHandler:   riskHandler,
		healthHandler: healthHandler,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	// Health endpoints
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)
	r.mux.HandleFunc("GET /ready", r.healthHandler.Ready)
	r.mux.HandleFunc("GET /live", r.healthHandler.Live)

	// Metrics
	r.mux.Handle("GET /metrics", handler.MetricsHandler())

	// Risk evaluation
	r.mux.HandleFunc("POST /api/v1/risk/evaluate", r.riskHandler.EvaluateActivity)

	// Blacklist management
	r.mux.HandleFunc("POST /api/v1/risk/blacklist", r.riskHandler.AddToBlacklist)

	// Payment verification
	r.mux.HandleFunc("POST /api/v1/risk/payments/mismatch", r.riskHandler.CheckPaymentMismatch)

	// Fraud alerts
	r.mux.HandleFunc("GET /api/v1/risk/alerts", r.riskHandler.ListAlerts)
	r.mux.HandleFunc("PUT /api/v1/risk/alerts/{id}/resolve", r.riskHandler.ResolveAlert)

	// Activity history
	r.mux.HandleFunc("GET /api/v1/risk/users/{id}/activities", r.riskHandler.GetUserActivities)
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// Add CORS headers
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// Handler returns the http.Handler
func (r *Router) Handler() http.Handler {
	return r
}
