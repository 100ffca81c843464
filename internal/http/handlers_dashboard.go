package http

import (
	"fmt"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/session"
)

const noDataMessage = "No expenses data available for visualization."

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	NewJSONResponse().Data(map[string]core.Money{"budget": sess.Ledger.Budget()}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	m, err := ParseBudget(NewRequestBodyParser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.Ledger.SetBudget(r.Context(), m); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Success(fmt.Sprintf("Monthly budget set to %s", m)).
		Data(map[string]core.Money{"budget": m}).
		Write(w)
}

// summaryFor computes the summary for the month picked by ?date=.
func (s *Server) summaryFor(w http.ResponseWriter, r *http.Request, sess *session.Session) (core.Summary, bool) {
	ref, err := ParseReferenceDate(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return core.Summary{}, false
	}
	return sess.Ledger.Summary(r.Context(), ref), true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	summary, ok := s.summaryFor(w, r, sess)
	if !ok {
		return
	}
	b := NewJSONResponse().Data(summary)
	switch {
	case summary.Totals.Count == 0:
		b.Info(noDataMessage)
	case summary.Skipped > 0:
		b.Warning(fmt.Sprintf("%d record(s) with unparseable dates left out of the time series", summary.Skipped))
	}
	b.Write(w)
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	summary, ok := s.summaryFor(w, r, sess)
	if !ok {
		return
	}
	cats := summary.ByCategory
	if cats == nil {
		cats = []core.CategoryTotal{}
	}
	b := NewJSONResponse().Data(map[string]any{"categories": cats, "totals": summary.Totals})
	if summary.Totals.Count == 0 {
		b.Info(noDataMessage)
	}
	b.Write(w)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	summary, ok := s.summaryFor(w, r, sess)
	if !ok {
		return
	}
	days := summary.OverTime
	if days == nil {
		days = []core.DayTotal{}
	}
	b := NewJSONResponse().Data(map[string]any{"days": days, "skipped_dates": summary.Skipped})
	if summary.Skipped > 0 {
		b.Warning(fmt.Sprintf("%d record(s) with unparseable dates left out of the time series", summary.Skipped))
	}
	b.Write(w)
}
