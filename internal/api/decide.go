package api

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/logic"
	"github.com/adlytic/addecision/internal/middleware"
	"github.com/adlytic/addecision/internal/models"
	"github.com/adlytic/addecision/internal/observability"
)

// DecideRequest is the body for POST /decide and POST /evaluate. UserAgent
// and IP are optional raw signals; when present they enrich user fields the
// caller left empty.
type DecideRequest struct {
	AdID      string             `json:"ad_id"`
	OrgID     string             `json:"org_id"`
	User      models.UserContext `json:"user"`
	UserAgent string             `json:"user_agent,omitempty"`
	IP        string             `json:"ip,omitempty"`
}

// DecideHandler runs the full decision: targeting evaluation plus the
// impression frequency check.
func (s *Server) DecideHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "decide"
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var req DecideRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Error("decode request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.AdID == "" || req.User.UserID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "ad_id and user.user_id required", http.StatusBadRequest)
		return
	}

	if s.Limiter != nil && !s.Limiter.Allow(req.OrgID) {
		s.Metrics.IncrementRequests(endpoint, method, "429")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	requestID := uuid.NewString()
	s.enrich(&req, r)

	result, err := s.Engine.Decide(r.Context(), req.AdID, req.User, req.OrgID)
	if err != nil {
		status := errorStatus(err)
		logger.Error("decide failed",
			zap.String("request_id", requestID),
			zap.String("ad_id", req.AdID),
			zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, statusLabel(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), status)
		return
	}

	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Info("decision",
			zap.String("request_id", requestID),
			zap.String("ad_id", req.AdID),
			zap.String("user_id", req.User.UserID),
			zap.Bool("eligible", result.Eligible),
			zap.Float64("score", result.Targeting.Score),
		)
	}

	s.Metrics.RecordTargetingScore(result.Targeting.Score)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// EvaluateHandler runs targeting evaluation only, without touching the
// frequency store.
func (s *Server) EvaluateHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "evaluate"
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var req DecideRequest
	if err := decodeJSON(r, &req); err != nil {
		logger.Error("decode request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.AdID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "ad_id required", http.StatusBadRequest)
		return
	}

	s.enrich(&req, r)

	decision, err := s.Engine.Evaluate(req.AdID, req.User)
	if err != nil {
		status := errorStatus(err)
		logger.Error("evaluate failed", zap.String("ad_id", req.AdID), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, statusLabel(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), status)
		return
	}

	s.Metrics.RecordTargetingScore(decision.Score)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, decision)
}

// enrich fills empty user fields from raw request signals. The body's
// user_agent and ip win over transport-level values.
func (s *Server) enrich(req *DecideRequest, r *http.Request) {
	ua := req.UserAgent
	if ua == "" {
		ua = r.UserAgent()
	}
	ip := req.IP
	if ip == "" {
		ip = r.Header.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	logic.EnrichUserContext(s.GeoIP, &req.User, ua, ip)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, logic.ErrAdNotFound), errors.Is(err, logic.ErrCampaignNotFound), errors.Is(err, logic.ErrAdInactive):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func statusLabel(status int) string {
	switch status {
	case http.StatusNotFound:
		return "404"
	case http.StatusBadRequest:
		return "400"
	case http.StatusServiceUnavailable:
		return "503"
	default:
		return "500"
	}
}
