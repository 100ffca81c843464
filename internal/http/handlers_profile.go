package http

import (
	"io"
	"net/http"
	"strconv"

	"tracker/internal/session"
)

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	NewJSONResponse().Data(map[string]any{"images": sess.Images()}).Write(w)
}

// handleGetImage serves an uploaded image, or redirects to the default.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kind := r.PathValue("kind")
	if !session.IsImageKind(kind) {
		NotFoundError("Unknown image " + strconv.Quote(kind)).Write(w)
		return
	}
	img := sess.Image(kind)
	if !img.Custom() {
		http.Redirect(w, r, img.URL, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.Data)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kind := r.PathValue("kind")
	if !session.IsImageKind(kind) {
		NotFoundError("Unknown image " + strconv.Quote(kind)).Write(w)
		return
	}
	body, err := s.uploadReader(w, r)
	if err != nil {
		badUpload(w, r, err)
		return
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		badUpload(w, r, err)
		return
	}

	img, err := sess.SetImage(r.Context(), kind, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Success("Image updated").
		Data(img).
		Write(w)
}
