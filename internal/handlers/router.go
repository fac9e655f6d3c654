package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carbon-tracker/internal/auth"
	"github.com/ukydev/carbon-tracker/internal/middleware"
	"github.com/ukydev/carbon-tracker/internal/tracker"
)

// RouterConfig collects what NewRouter wires together.
type RouterConfig struct {
	Tracker      *tracker.Tracker
	AuthService  *auth.Service
	AuthRequired bool

	// RateLimitRequests <= 0 disables rate limiting.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Logger log.FieldLogger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	activities := NewActivityHandler(cfg.Tracker, logger)
	authHandler := NewAuthHandler(cfg.AuthService, logger)
	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthService, cfg.AuthRequired)

	r := mux.NewRouter()
	r.Use(middleware.Logging(logger))
	r.HandleFunc("/health", Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)
	if cfg.RateLimitRequests > 0 {
		api.Use(middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	api.HandleFunc("/auth/token", authHandler.IssueToken).Methods(http.MethodPost)
	api.HandleFunc("/activities", activities.List).Methods(http.MethodGet)
	api.HandleFunc("/activities", activities.Create).Methods(http.MethodPost)
	api.HandleFunc("/activities/summary", activities.Summary).Methods(http.MethodGet)
	api.HandleFunc("/activities/{id}", activities.Update).Methods(http.MethodPatch)
	api.HandleFunc("/activities/{id}", activities.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/submission", activities.SubmissionStatus).Methods(http.MethodGet)
	api.HandleFunc("/submission", activities.CancelSubmission).Methods(http.MethodDelete)
	api.HandleFunc("/modes", activities.Modes).Methods(http.MethodGet)
	api.HandleFunc("/colors", activities.Colors).Methods(http.MethodGet)

	return r
}
