// Package probe answers "is the internet reachable?" for the advisory
// offline banner. It never blocks longer than its timeout and never fails.
package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	applog "tracker/internal/log"
)

const (
	DefaultURL     = "https://www.google.com"
	DefaultTimeout = 3 * time.Second
)

type Prober struct {
	url     string
	timeout time.Duration
	client  *http.Client
	group   singleflight.Group
	logger  *applog.Logger
}

func New(url string, timeout time.Duration, logger *applog.Logger) *Prober {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Prober{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.WithComponent(applog.ComponentProbe),
	}
}

// Check reports whether the probe URL answered with a non-5xx status
// within the timeout. Concurrent callers share one request, which outlives
// any single caller's cancellation; a cancelled caller sees offline.
func (p *Prober) Check(ctx context.Context) bool {
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(p.url, func() (any, error) {
		return p.check(shared), nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return false
	}
}

func (p *Prober) check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.WarnContext(ctx, "Connectivity probe misconfigured", applog.FieldError, err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.DebugContext(ctx, "Connectivity probe failed", applog.FieldOnline, false, applog.FieldError, err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	online := resp.StatusCode < http.StatusInternalServerError
	p.logger.DebugContext(ctx, "Connectivity probe finished",
		applog.FieldOnline, online, applog.FieldStatusCode, resp.StatusCode)
	return online
}
