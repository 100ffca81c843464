package http

import (
	"context"
	"net/http"
	"time"

	"tracker/internal/session"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the server can take traffic. Connectivity is
// reported but never makes the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{
		"sessions": s.sessions.Len(),
	}
	if s.prober != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		checks["online"] = s.prober.Check(ctx)
	}
	m := s.Metrics()
	checks["requests"] = m.TotalRequests
	checks["server_errors"] = m.ServerErrors

	NewJSONResponse().Data(map[string]any{
		"status":    "ready",
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleConnectivity answers the offline-banner question.
func (s *Server) handleConnectivity(w http.ResponseWriter, r *http.Request) {
	online := true
	if s.prober != nil {
		online = s.prober.Check(r.Context())
	}
	b := NewJSONResponse().Data(map[string]bool{"online": online})
	if !online {
		b.Warning("No Internet Connection")
	}
	b.Write(w)
}

// handleEndSession discards the caller's session and its ledger.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	ended := false
	if c, err := r.Cookie(SessionCookie); err == nil && session.ValidID(c.Value) {
		ended = s.sessions.End(r.Context(), c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	NewJSONResponse().Info("Session ended.").Data(map[string]bool{"ended": ended}).Write(w)
}
