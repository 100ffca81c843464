// Package session replaces process-wide state with explicit per-visitor
// sessions, each owning a ledger, a budget and two image slots.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/cache"
	"tracker/internal/core"
	"tracker/internal/ledger"
	applog "tracker/internal/log"
	"tracker/internal/services"
)

type Session struct {
	ID      string
	Created time.Time
	Ledger  *services.LedgerService

	mu     sync.Mutex
	images map[string]Image
	logger *applog.Logger
}

// SetImage replaces the image in slot kind. When data does not decode the
// previous image stays in place and an ImageLoadError is returned.
func (s *Session) SetImage(ctx context.Context, kind string, data []byte) (Image, error) {
	if !IsImageKind(kind) {
		return Image{}, &core.ValidationError{Field: "image kind", Value: kind, Err: ErrUnknownImageKind}
	}
	img, err := decodeImage(kind, data)
	if err != nil {
		s.logger.WarnContext(ctx, "Image upload rejected",
			applog.FieldOperation, applog.OpImage, applog.FieldImageKind, kind, applog.FieldError, err)
		return s.Image(kind), err
	}
	img.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.images[kind] = img
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Image updated",
		applog.FieldOperation, applog.OpImage, applog.FieldImageKind, kind,
		"width", img.Width, "height", img.Height)
	return img, nil
}

// Image returns the current image for kind, or the zero Image for an
// unknown kind.
func (s *Session) Image(kind string) Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images[kind]
}

// Images returns both slots, profile first.
func (s *Session) Images() []Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []Image{s.images[KindProfile], s.images[KindBanner]}
}

// Config controls session creation and retention.
type Config struct {
	TTL           time.Duration
	MaxSessions   int
	DefaultBudget core.Money
	// Publisher receives ledger events from every session; nil disables them.
	Publisher services.EventPublisher
}

// Manager creates sessions on first use and drops them after TTL of
// inactivity or when MaxSessions is exceeded.
type Manager struct {
	cfg      Config
	sessions *cache.LRUCache[*Session]
	cleanup  *cache.Manager
	logger   *applog.Logger
}

func NewManager(cfg Config, logger *applog.Logger) *Manager {
	if logger == nil {
		logger = applog.Discard()
	}
	m := &Manager{
		cfg:      cfg,
		sessions: cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.TTL),
		cleanup:  cache.NewManager(logger),
		logger:   logger.WithComponent(applog.ComponentSession),
	}
	m.sessions.OnEvict(func(id string, s *Session) {
		m.logger.Info("Session ended",
			applog.FieldSessionID, id,
			applog.FieldRecords, len(s.Ledger.Records()),
			"age", time.Since(s.Created).Round(time.Second))
	})
	m.cleanup.Register(m.sessions)
	return m
}

// Start launches the background sweep of idle sessions.
func (m *Manager) Start() {
	interval := m.cfg.TTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	m.cleanup.StartCleanup(interval)
}

// Stop ends the background sweep.
func (m *Manager) Stop() {
	m.cleanup.Stop()
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the session for id, creating it with the default budget when
// it does not exist yet.
func (m *Manager) Get(ctx context.Context, id string) (*Session, bool) {
	s, created := m.sessions.GetOrCreate(id, func() *Session {
		return m.newSession(id)
	})
	if created {
		m.logger.InfoContext(ctx, "Session started", applog.FieldSessionID, id)
	}
	return s, created
}

// End drops the session for id at once and reports whether it existed.
func (m *Manager) End(ctx context.Context, id string) bool {
	s, ok := m.sessions.Delete(id)
	if ok {
		m.logger.InfoContext(ctx, "Session ended by client",
			applog.FieldSessionID, id,
			applog.FieldRecords, len(s.Ledger.Records()))
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Size()
}

func (m *Manager) newSession(id string) *Session {
	logger := m.logger.With(applog.FieldSessionID, id)
	store := ledger.New(m.cfg.DefaultBudget)
	return &Session{
		ID:      id,
		Created: time.Now().UTC(),
		Ledger:  services.NewLedgerService(id, store, m.cfg.Publisher, logger),
		images:  defaultImages(),
		logger:  logger,
	}
}
