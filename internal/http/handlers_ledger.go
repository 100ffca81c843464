package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"tracker/internal/session"
)

// uploadReader returns the "file" part of a multipart request or the raw
// body otherwise. The body is capped at the configured upload size.
func (s *Server) uploadReader(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return r.Body, nil
	}
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("read file part: %w", err)
	}
	return f, nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	body, err := s.uploadReader(w, r)
	if err != nil {
		badUpload(w, r, err)
		return
	}
	defer body.Close()

	n, err := sess.Ledger.Import(r.Context(), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Success("Expenses loaded successfully!").
		Data(map[string]int{"count": n}).
		Write(w)
}

func badUpload(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeError(w, r, err)
		return
	}
	BadRequestError("Upload must be a CSV body or a multipart form with a 'file' field").Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	data, err := sess.Ledger.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	name := filepath.Base(s.savePath)
	if name == "." || name == "/" || name == "" {
		name = "expenses.csv"
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	n, err := sess.Ledger.Save(r.Context(), s.savePath)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Success(fmt.Sprintf("Expenses saved to '%s'!", filepath.Base(s.savePath))).
		Data(map[string]any{"count": n, "path": s.savePath}).
		Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	sess.Ledger.Reset(r.Context())
	NewJSONResponse().
		Success("Expense data has been reset.").
		Data(map[string]int{"count": 0}).
		Write(w)
}

func (s *Server) handleLoadSample(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	n := sess.Ledger.LoadSample(r.Context())
	NewJSONResponse().
		Success("Sample expense data loaded!").
		Data(map[string]int{"count": n}).
		Write(w)
}
