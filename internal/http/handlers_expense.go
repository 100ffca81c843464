package http

import (
	"net/http"
	"time"

	"tracker/internal/core"
	"tracker/internal/session"
)

type expenseList struct {
	Records      []core.Expense `json:"records"`
	ExtraColumns []string       `json:"extra_columns,omitempty"`
	Count        int            `json:"count"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	records := sess.Ledger.Records()
	if records == nil {
		records = []core.Expense{}
	}
	b := NewJSONResponse().Data(expenseList{Records: records, Count: len(records)})
	if len(records) == 0 {
		b.Info("No expense data available. Load sample data or add expenses!")
	}
	b.Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	e, err := ParseExpense(NewRequestBodyParser(r), time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	n, err := sess.Ledger.Add(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Success("Expense added successfully!").
		Data(map[string]any{"expense": e, "count": n}).
		Write(w)
}
