package popup

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/brizzai/popup-login/internal/logger"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often the popup is inspected
const DefaultPollInterval = 100 * time.Millisecond

// Options configure a Supervisor
type Options struct {
	// Origin is the host page's origin; the redirect URI must share it
	Origin *url.URL
	Name   string
	Screen Screen
	Width  int
	Height int
	// PollInterval defaults to DefaultPollInterval
	PollInterval time.Duration
	// Timeout bounds the popup's lifetime. Zero means no ceiling.
	Timeout time.Duration
	// NewTicker defaults to NewTicker
	NewTicker TickerFunc
}

// Supervisor drives one popup per Run through the redirect dance
type Supervisor struct {
	opener Opener
	opts   Options
}

// NewSupervisor validates opts and fills defaults
func NewSupervisor(opener Opener, opts Options) (*Supervisor, error) {
	if opener == nil {
		return nil, errors.New("popup opener is required")
	}
	if opts.Origin == nil || opts.Origin.Scheme == "" || opts.Origin.Host == "" {
		return nil, errors.New("popup host origin must be an absolute URL")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTicker
	}
	return &Supervisor{opener: opener, opts: opts}, nil
}

// OriginFromRedirectURI derives the host origin from a redirect URI
func OriginFromRedirectURI(redirectURI string) (*url.URL, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("redirect uri must be absolute: %s", redirectURI)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// session is the in-memory state of one Run. It owns the window and the
// ticker until it settles.
type session struct {
	window  Window
	ticker  Ticker
	state   State
	settled bool
}

// settle releases the ticker and the window and records the terminal state.
// Only the first call has any effect.
func (s *session) settle(next State) State {
	if s.settled {
		return s.state
	}
	s.settled = true
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.window != nil && !s.window.Closed() {
		if err := s.window.Close(); err != nil {
			logger.Warn("Failed to close popup window", zap.Error(err))
		}
	}
	logger.Debug("Popup settled", zap.Stringer("from", s.state.Kind), zap.Stringer("to", next.Kind), zap.Error(next.Err))
	s.state = next
	return next
}

func (s *session) transition(next State) {
	if next.Kind != s.state.Kind {
		logger.Debug("Popup transition", zap.Stringer("from", s.state.Kind), zap.Stringer("to", next.Kind))
	}
	s.state = next
}

// Run opens a popup at authURL and blocks until it yields a token, fails,
// or ctx is done.
func (s *Supervisor) Run(ctx context.Context, authURL string) (string, error) {
	sess := &session{state: State{Kind: Opening}}
	result := s.run(ctx, sess, authURL)
	if result.Kind == Succeeded {
		return result.Token, nil
	}
	return "", result.Err
}

func (s *Supervisor) run(ctx context.Context, sess *session, authURL string) State {
	features := CenteredFeatures(s.opts.Name, s.opts.Screen, s.opts.Width, s.opts.Height)
	w, err := s.opener.Open(ctx, authURL, features)
	if err != nil || w == nil {
		if err != nil && !errors.Is(err, ErrPopupBlocked) {
			err = fmt.Errorf("%w: %v", ErrPopupBlocked, err)
		} else if err == nil {
			err = ErrPopupBlocked
		}
		// a window handed back with an error is still ours to close
		sess.window = w
		return sess.settle(failed(err))
	}
	sess.window = w
	sess.ticker = s.opts.NewTicker(s.opts.PollInterval)
	sess.transition(polling)
	logger.Info("Popup opened", zap.String("name", features.Name), zap.Duration("poll_interval", s.opts.PollInterval))

	var deadline <-chan time.Time
	if s.opts.Timeout > 0 {
		timer := time.NewTimer(s.opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return sess.settle(failed(ctx.Err()))
		case <-deadline:
			return sess.settle(failed(fmt.Errorf("%w after %s", ErrTimeout, s.opts.Timeout)))
		case <-sess.ticker.C():
			next := Evaluate(w, s.opts.Origin)
			if next.Terminal() {
				return sess.settle(next)
			}
			sess.transition(next)
		}
	}
}
