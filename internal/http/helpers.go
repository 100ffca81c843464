package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"tracker/internal/core"
	applog "tracker/internal/log"
)

// writeError maps err onto a response. User-correctable conditions keep
// their own message; anything else is logged and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		ErrorResponse(http.StatusRequestEntityTooLarge, "Upload too large").Write(w)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ErrorResponse(http.StatusServiceUnavailable, "Request cancelled").Write(w)
		return
	case !core.IsUserError(err):
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", applog.FieldError, err)
		InternalServerError("Internal error").Write(w)
		return
	}

	var (
		ve *core.ValidationError
		se *core.SchemaError
		ee *core.EmptyLedgerError
		ie *core.ImageLoadError
	)
	switch {
	case errors.As(err, &ee):
		ConflictWarning(capitalize(ee.Error()) + ".").Write(w)
	case errors.As(err, &se):
		UnprocessableEntityError(se.Error()).Write(w)
	case errors.As(err, &ve):
		UnprocessableEntityError(capitalize(ve.Error())).Write(w)
	case errors.As(err, &ie):
		UnprocessableEntityError(capitalize(ie.Error())).Write(w)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// clientIP prefers proxy headers and falls back to the connection address.
func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		first, _, _ := strings.Cut(v, ",")
		return strings.TrimSpace(first)
	}
	if v := r.Header.Get("X-Real-IP"); v != "" {
		return strings.TrimSpace(v)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
