// Package api exposes the decision engine over a thin HTTP surface. The
// engine itself stays in-process callable; these handlers only decode
// requests, enrich user context and translate engine errors to status codes.
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/config"
	"github.com/adlytic/addecision/internal/db"
	"github.com/adlytic/addecision/internal/geoip"
	"github.com/adlytic/addecision/internal/logic"
	"github.com/adlytic/addecision/internal/logic/ratelimit"
	"github.com/adlytic/addecision/internal/middleware"
	"github.com/adlytic/addecision/internal/models"
	"github.com/adlytic/addecision/internal/observability"
)

// Server groups dependencies for the HTTP handlers.
type Server struct {
	Logger      *zap.Logger
	Engine      *logic.DecisionEngine
	AdDataStore models.AdDataStore
	PG          *db.Postgres
	GeoIP       *geoip.GeoIP
	Limiter     *ratelimit.OrgLimiter
	Metrics     observability.MetricsRegistry
	Config      config.Config
	reloadMu    sync.Mutex
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, engine *logic.DecisionEngine, store models.AdDataStore, pg *db.Postgres, geo *geoip.GeoIP, limiter *ratelimit.OrgLimiter, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:      logger,
		Engine:      engine,
		AdDataStore: store,
		PG:          pg,
		GeoIP:       geo,
		Limiter:     limiter,
		Metrics:     metrics,
		Config:      cfg,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/decide", s.DecideHandler).Methods("POST")
	r.HandleFunc("/evaluate", s.EvaluateHandler).Methods("POST")
	r.HandleFunc("/frequency/check", s.FrequencyCheckHandler).Methods("POST")
	r.HandleFunc("/frequency/record", s.FrequencyRecordHandler).Methods("POST")
	r.HandleFunc("/frequency/check-and-record", s.FrequencyCheckAndRecordHandler).Methods("POST")
	r.HandleFunc("/frequency/reset", s.FrequencyResetHandler).Methods("POST")
	r.HandleFunc("/frequency/analytics", s.FrequencyAnalyticsHandler).Methods("GET")
	r.HandleFunc("/frequency/recommended", s.RecommendedCapsHandler).Methods("GET")
	r.HandleFunc("/healthz", s.HealthHandler).Methods("GET")
	r.HandleFunc("/reload", s.ReloadHandler).Methods("POST")
	r.Handle("/metrics", promhttp.Handler())

	handler := middleware.WithTraceLogger(s.Logger)(r)
	return otelhttp.NewHandler(handler, "addecision")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
