package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/logic/frequency"
	"github.com/adlytic/addecision/internal/middleware"
)

// FrequencyRequest is the body for the frequency cap endpoints.
type FrequencyRequest struct {
	UserID     string `json:"user_id"`
	AdID       string `json:"ad_id"`
	CampaignID string `json:"campaign_id"`
	OrgID      string `json:"org_id"`
	EventType  string `json:"event_type"`
}

func (req *FrequencyRequest) valid() bool {
	return req.UserID != "" && req.AdID != "" && req.CampaignID != ""
}

// FrequencyCheckHandler reports whether the user is under cap without
// mutating any counter.
func (s *Server) FrequencyCheckHandler(w http.ResponseWriter, r *http.Request) {
	s.frequencyOp(w, r, "frequency_check", func(req FrequencyRequest) (any, error) {
		return s.Engine.CheckFrequencyCap(r.Context(), req.UserID, req.AdID, req.CampaignID, req.OrgID, req.EventType)
	})
}

// FrequencyRecordHandler counts a delivered event.
func (s *Server) FrequencyRecordHandler(w http.ResponseWriter, r *http.Request) {
	s.frequencyOp(w, r, "frequency_record", func(req FrequencyRequest) (any, error) {
		if err := s.Engine.RecordFrequencyEvent(r.Context(), req.UserID, req.AdID, req.CampaignID, req.OrgID, req.EventType); err != nil {
			return nil, err
		}
		return map[string]string{"status": "recorded"}, nil
	})
}

// FrequencyCheckAndRecordHandler atomically counts the event and reports
// whether it landed within the cap.
func (s *Server) FrequencyCheckAndRecordHandler(w http.ResponseWriter, r *http.Request) {
	s.frequencyOp(w, r, "frequency_check_and_record", func(req FrequencyRequest) (any, error) {
		return s.Engine.CheckAndRecord(r.Context(), req.UserID, req.AdID, req.CampaignID, req.OrgID, req.EventType)
	})
}

// FrequencyResetHandler clears all counters for a (user, campaign, org).
func (s *Server) FrequencyResetHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "frequency_reset"
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var req FrequencyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.UserID == "" || req.CampaignID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "user_id and campaign_id required", http.StatusBadRequest)
		return
	}

	if err := s.Engine.ResetFrequencyCaps(r.Context(), req.UserID, req.CampaignID, req.OrgID); err != nil {
		logger.Error("frequency reset failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "204")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	w.WriteHeader(http.StatusNoContent)
}

// FrequencyAnalyticsHandler aggregates the durable event history for a
// campaign. Query params: campaign_id, org_id, start, end (RFC 3339).
func (s *Server) FrequencyAnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "frequency_analytics"
	const method = "GET"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	q := r.URL.Query()
	campaignID := q.Get("campaign_id")
	orgID := q.Get("org_id")
	if campaignID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign_id required", http.StatusBadRequest)
		return
	}

	var windowStart, windowEnd time.Time
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid start time", http.StatusBadRequest)
			return
		}
		windowStart = t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid end time", http.StatusBadRequest)
			return
		}
		windowEnd = t
	}

	summary, err := s.Engine.GetFrequencyAnalytics(r.Context(), campaignID, orgID, windowStart, windowEnd)
	if err != nil {
		logger.Error("frequency analytics failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, summary)
}

// RecommendedCapsHandler returns the effective cap settings for a campaign.
// Query params: campaign_id, org_id.
func (s *Server) RecommendedCapsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "frequency_recommended"
	const method = "GET"

	campaignID := r.URL.Query().Get("campaign_id")
	orgID := r.URL.Query().Get("org_id")
	if campaignID == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "campaign_id required", http.StatusBadRequest)
		return
	}

	caps := s.Engine.GetRecommendedFrequencyCaps(campaignID, orgID)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, caps)
}

// frequencyOp shares the decode/validate/respond plumbing of the three POST
// counter endpoints.
func (s *Server) frequencyOp(w http.ResponseWriter, r *http.Request, endpoint string, op func(FrequencyRequest) (any, error)) {
	start := time.Now()
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var req FrequencyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if !req.valid() {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "user_id, ad_id and campaign_id required", http.StatusBadRequest)
		return
	}

	result, err := op(req)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, frequency.ErrInvalidEventType) {
			status = http.StatusBadRequest
		}
		logger.Error("frequency operation failed",
			zap.String("endpoint", endpoint),
			zap.String("user_id", req.UserID),
			zap.String("ad_id", req.AdID),
			zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, statusLabel(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), status)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}
