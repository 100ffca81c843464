package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	applog "tracker/internal/log"
	"tracker/internal/middleware/trace"
	"tracker/internal/session"
)

// SessionCookie names the cookie that carries the session ID.
const SessionCookie = "tracker_session"

// Prober reports internet reachability for the advisory offline banner.
type Prober interface {
	Check(ctx context.Context) bool
}

// Options carries the settings NewServer needs from the configuration.
type Options struct {
	Addr           string
	SavePath       string
	MaxUploadBytes int64
}

type Server struct {
	http.Server
	sessions  *session.Manager
	prober    Prober
	savePath  string
	maxUpload int64
	logger    *applog.Logger
	tracer    *trace.Middleware
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(opts Options, sessions *session.Manager, prober Prober, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.Discard()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 5 << 20
	}
	mux := http.NewServeMux()

	s := &Server{
		sessions:  sessions,
		prober:    prober,
		savePath:  opts.SavePath,
		maxUpload: opts.MaxUploadBytes,
		logger:    logger.WithComponent(applog.ComponentHTTP),
		tracer:    trace.NewMiddleware(logger, clientIP),
		started:   time.Now(),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("GET /api/expenses", s.withSession(s.handleListExpenses))
	mux.Handle("POST /api/expenses", s.withSession(s.handleCreateExpense))

	mux.Handle("POST /api/ledger/import", s.withSession(s.handleImport))
	mux.Handle("GET /api/ledger/export", s.withSession(s.handleExport))
	mux.Handle("POST /api/ledger/save", s.withSession(s.handleSave))
	mux.Handle("POST /api/ledger/reset", s.withSession(s.handleReset))
	mux.Handle("POST /api/ledger/sample", s.withSession(s.handleLoadSample))

	mux.Handle("GET /api/budget", s.withSession(s.handleGetBudget))
	mux.Handle("PUT /api/budget", s.withSession(s.handleSetBudget))
	mux.Handle("GET /api/summary", s.withSession(s.handleSummary))
	mux.Handle("GET /api/aggregate/categories", s.withSession(s.handleByCategory))
	mux.Handle("GET /api/aggregate/timeline", s.withSession(s.handleTimeline))
	mux.HandleFunc("GET /api/connectivity", s.handleConnectivity)
	mux.HandleFunc("DELETE /api/session", s.handleEndSession)

	mux.Handle("GET /api/profile", s.withSession(s.handleListImages))
	mux.Handle("GET /api/profile/{kind}", s.withSession(s.handleGetImage))
	mux.Handle("POST /api/profile/{kind}", s.withSession(s.handleUploadImage))

	return s
}

// withSession resolves the caller's session from its cookie, issuing a new
// one when the cookie is missing or malformed.
func (s *Server) withSession(next func(http.ResponseWriter, *http.Request, *session.Session)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(SessionCookie); err == nil && session.ValidID(c.Value) {
			id = c.Value
		} else {
			id = session.NewID()
		}

		sess, created := s.sessions.Get(r.Context(), id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		logger := applog.FromContext(r.Context()).With(applog.FieldSessionID, id)
		next(w, r.WithContext(applog.NewContext(r.Context(), logger)), sess)
	})
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and the session sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.sessions.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
