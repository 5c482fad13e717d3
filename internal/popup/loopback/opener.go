package loopback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/brizzai/popup-login/internal/auth/handlers"
	"github.com/brizzai/popup-login/internal/auth/middleware"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/popup"
	"github.com/cli/browser"
	"go.uber.org/zap"
)

// Opener serves the redirect URI's origin on a local listener and opens the
// authorization URL in the system browser
type Opener struct {
	redirect    *url.URL
	openBrowser func(url string) error
	listen      func(network, address string) (net.Listener, error)
}

var _ popup.Opener = (*Opener)(nil)

// Option configures an Opener
type Option func(*Opener)

// WithBrowserOpen sets the function used to open a URL in the user's browser
func WithBrowserOpen(fn func(url string) error) Option {
	return func(o *Opener) { o.openBrowser = fn }
}

// WithListener sets how the callback listener is created
func WithListener(fn func(network, address string) (net.Listener, error)) Option {
	return func(o *Opener) { o.listen = fn }
}

// NewOpener builds an Opener for a loopback redirect URI such as
// http://127.0.0.1:8888/callback
func NewOpener(redirectURI string, opts ...Option) (*Opener, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("loopback redirect uri must use http, got %q", u.Scheme)
	}
	if !isLoopback(u.Hostname()) {
		return nil, fmt.Errorf("redirect uri host %q is not a loopback address", u.Hostname())
	}

	o := &Opener{
		redirect:    u,
		openBrowser: browser.OpenURL,
		listen:      net.Listen,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (o *Opener) listenAddress() string {
	port := o.redirect.Port()
	if port == "" {
		port = "80"
	}
	return net.JoinHostPort(o.redirect.Hostname(), port)
}

// Open starts the callback server and opens rawURL in the browser. Failure
// to do either is reported as popup.ErrPopupBlocked.
func (o *Opener) Open(ctx context.Context, rawURL string, features popup.Features) (popup.Window, error) {
	ln, err := o.listen("tcp", o.listenAddress())
	if err != nil {
		return nil, fmt.Errorf("%w: callback listener: %v", popup.ErrPopupBlocked, err)
	}

	origin := &url.URL{Scheme: o.redirect.Scheme, Host: o.redirect.Host}
	w := newWindow(origin)

	mux := http.NewServeMux()
	handlers.NewHandler(origin, o.redirect.Path, w).RegisterRoutes(mux)
	srv := &http.Server{
		Handler:           middleware.Logging(middleware.NoStore(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	w.server = srv

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Callback server stopped", zap.Error(err))
		}
	}()

	logger.Info("Opening authorization page in browser",
		zap.String("callback", o.redirect.String()),
		zap.String("features", features.String()),
	)
	if err := o.openBrowser(rawURL); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("%w: %v", popup.ErrPopupBlocked, err)
	}
	return w, nil
}
