package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adlytic/addecision/internal/db"
)

// Reload refreshes the catalog snapshot from Postgres. Safe to call from the
// periodic reload loop and the handler concurrently.
func (s *Server) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	if s.PG == nil {
		return nil
	}
	return db.LoadCatalog(s.PG, s.AdDataStore)
}

// ReloadHandler reloads ads, campaigns and frequency policies from Postgres.
func (s *Server) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "reload"
	const method = "POST"

	if err := s.Reload(); err != nil {
		s.Logger.Error("reload failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "reload failed", http.StatusInternalServerError)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "204")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	w.WriteHeader(http.StatusNoContent)
}
