// Package loopback implements popup.Window for a command line host. The
// redirect URI's origin is served locally and the system browser plays the
// popup: until the callback page reports its location back, the window's
// location is unreadable, just as a real popup's is while it shows the
// provider's pages.
package loopback

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/brizzai/popup-login/internal/auth/handlers"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/popup"
	"go.uber.org/zap"
)

const shutdownTimeout = 2 * time.Second

// Window is a browser tab supervised through a local callback server
type Window struct {
	origin *url.URL

	mu       sync.Mutex
	location *url.URL
	closed   bool
	server   *http.Server
}

var (
	_ popup.Window      = (*Window)(nil)
	_ handlers.Reporter = (*Window)(nil)
)

func newWindow(origin *url.URL) *Window {
	return &Window{origin: origin}
}

func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Window) Location() (*url.URL, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.location == nil {
		return nil, fmt.Errorf("SecurityError: %w (host origin %s)", popup.ErrCrossOrigin, w.origin)
	}
	u := *w.location
	return &u, nil
}

// Close stops the callback server. The browser tab itself stays open; the
// callback page tells the user they may close it.
func (w *Window) Close() error {
	w.mu.Lock()
	w.closed = true
	srv := w.server
	w.server = nil
	w.mu.Unlock()

	return shutdown(srv)
}

func shutdown(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("callback server shutdown: %w", err)
	}
	return nil
}

// ReportLocation records the URL the callback page was loaded at
func (w *Window) ReportLocation(u *url.URL) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.location = u
	logger.Debug("Callback page reported its location", zap.String("path", u.Path))
}

// ReportClosed marks the window closed by the user. Once the callback page
// has reported a token or an error the outcome is fixed and a later close is
// ignored.
func (w *Window) ReportClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || conclusive(w.location) {
		return
	}
	w.closed = true
	srv := w.server
	w.server = nil
	logger.Debug("Callback page closed")

	// called from a request on srv, so shut it down once that request is done
	go func() {
		if err := shutdown(srv); err != nil {
			logger.Warn("Failed to stop callback server", zap.Error(err))
		}
	}()
}

// conclusive reports whether u carries the redirect's outcome
func conclusive(u *url.URL) bool {
	if u == nil {
		return false
	}
	return u.EscapedFragment() != "" || u.Query().Get("error") != ""
}
