package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/config"
	"github.com/adlytic/addecision/internal/logic"
	"github.com/adlytic/addecision/internal/logic/frequency"
	"github.com/adlytic/addecision/internal/logic/ratelimit"
	"github.com/adlytic/addecision/internal/models"
)

func newTestServer(t *testing.T, limiter *ratelimit.OrgLimiter) *Server {
	t.Helper()

	catalog := models.NewInMemoryAdDataStore()
	require.NoError(t, catalog.ReloadAll(
		[]models.Ad{{ID: "ad-1", CampaignID: "camp-1", OrgID: "org-1", Active: true}},
		[]models.Campaign{{ID: "camp-1", OrgID: "org-1", Active: true}},
		[]models.FrequencyCapPolicy{{
			OrgID:      "org-1",
			CampaignID: "camp-1",
			EventType:  models.EventImpression,
			Limit:      2,
			Window:     time.Hour,
		}},
	))

	logger := zap.NewNop()
	caps := frequency.NewCapService(frequency.NewMemoryStore(), catalog, nil, nil, 0, logger)
	evaluator := logic.NewTargetingEvaluator(catalog, logger)
	engine := logic.NewDecisionEngine(evaluator, caps, nil, logic.EngineOptions{}, logger)

	return NewServer(logger, engine, catalog, nil, nil, limiter, nil, config.Config{})
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestDecideHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	w := postJSON(t, srv.DecideHandler, DecideRequest{
		AdID:  "ad-1",
		OrgID: "org-1",
		User:  models.UserContext{UserID: "user-1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var result models.DecisionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Eligible)
	require.NotNil(t, result.Frequency)
	assert.True(t, result.Frequency.Allowed)
}

func TestDecideHandlerValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	// Missing user id.
	w := postJSON(t, srv.DecideHandler, DecideRequest{AdID: "ad-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Malformed body.
	req := httptest.NewRequest("POST", "/", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	srv.DecideHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecideHandlerUnknownAd(t *testing.T) {
	srv := newTestServer(t, nil)

	w := postJSON(t, srv.DecideHandler, DecideRequest{
		AdID: "missing",
		User: models.UserContext{UserID: "user-1"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecideHandlerRateLimited(t *testing.T) {
	limiter := ratelimit.NewOrgLimiter(ratelimit.Config{Capacity: 1, RefillRate: 1, Enabled: true}, nil)
	srv := newTestServer(t, limiter)

	body := DecideRequest{AdID: "ad-1", OrgID: "org-1", User: models.UserContext{UserID: "user-1"}}
	w := postJSON(t, srv.DecideHandler, body)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, srv.DecideHandler, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestEvaluateHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	w := postJSON(t, srv.EvaluateHandler, DecideRequest{
		AdID: "ad-1",
		User: models.UserContext{UserID: "user-1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var decision models.TargetingDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Matches)
	assert.Len(t, decision.Breakdown, 5)
}

func TestFrequencyEndpointsFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	body := FrequencyRequest{
		UserID:     "user-1",
		AdID:       "ad-1",
		CampaignID: "camp-1",
		OrgID:      "org-1",
		EventType:  models.EventImpression,
	}

	// Policy limit is 2: record twice, then the check denies.
	for i := 0; i < 2; i++ {
		w := postJSON(t, srv.FrequencyRecordHandler, body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postJSON(t, srv.FrequencyCheckHandler, body)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.FrequencyCheckResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(2), result.CurrentCount)

	// Reset clears the counters.
	w = postJSON(t, srv.FrequencyResetHandler, body)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = postJSON(t, srv.FrequencyCheckHandler, body)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Allowed)
}

func TestFrequencyCheckHandlerInvalidEventType(t *testing.T) {
	srv := newTestServer(t, nil)

	w := postJSON(t, srv.FrequencyCheckHandler, FrequencyRequest{
		UserID:     "user-1",
		AdID:       "ad-1",
		CampaignID: "camp-1",
		EventType:  "conversion",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendedCapsHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/frequency/recommended?campaign_id=camp-1&org_id=org-1", nil)
	w := httptest.NewRecorder()
	srv.RecommendedCapsHandler(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var caps models.RecommendedCaps
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &caps))
	assert.Equal(t, 2, caps.Impression.Limit)

	// Missing campaign_id.
	req = httptest.NewRequest("GET", "/frequency/recommended", nil)
	w = httptest.NewRecorder()
	srv.RecommendedCapsHandler(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.HealthHandler(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
