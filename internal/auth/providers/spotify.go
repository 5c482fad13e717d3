package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/brizzai/popup-login/internal/auth/constants"
	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/tokenstore"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotLoggedIn is returned when an operation needs a stored credential and
// there is none. Its text is shown to users and tool clients verbatim, so it
// keeps the capitalized sentence form.
var ErrNotLoggedIn = errors.New("No user is currently logged in with " + constants.ProviderID)

const signInKey = "sign-in"

// SpotifyProvider implements LoginProvider with Spotify's implicit grant in
// a supervised popup
type SpotifyProvider struct {
	request models.AuthorizationRequest
	authURL string
	popup   PopupRunner
	fetcher ProfileFetcher
	tokens  *tokenstore.TokenStore

	signIns singleflight.Group
	mu      sync.Mutex
	flight  *signInFlight
}

// signInFlight is the context a shared sign in runs under. It is cancelled
// once every caller waiting on it has left.
type signInFlight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

var _ LoginProvider = (*SpotifyProvider)(nil)

// NewSpotifyProvider wires the provider. authURL may be empty for the
// public authorize endpoint.
func NewSpotifyProvider(req models.AuthorizationRequest, authURL string, popup PopupRunner, fetcher ProfileFetcher, tokens *tokenstore.TokenStore) *SpotifyProvider {
	if authURL == "" {
		authURL = constants.AuthURL
	}
	return &SpotifyProvider{
		request: req,
		authURL: authURL,
		popup:   popup,
		fetcher: fetcher,
		tokens:  tokens,
	}
}

func (p *SpotifyProvider) ID() string { return constants.ProviderID }

// AuthorizationURL returns the URL the popup is opened at
func (p *SpotifyProvider) AuthorizationURL() string {
	return BuildAuthorizationURL(p.authURL, p.request)
}

// Initialize has nothing to prepare
func (p *SpotifyProvider) Initialize(ctx context.Context) error {
	return nil
}

// GetLoginStatus fetches the profile for the stored credential. A credential
// the provider rejects is cleared.
func (p *SpotifyProvider) GetLoginStatus(ctx context.Context) (*models.SocialUser, error) {
	token, ok := p.tokens.Retrieve()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	user, err := p.fetcher.FetchProfile(ctx, token)
	if err != nil {
		p.tokens.Clear()
		logger.Info("Stored Spotify credential is no longer usable, cleared it", zap.Error(err))
		return nil, err
	}
	return user, nil
}

// SignIn runs the popup flow. Concurrent calls share one popup and its
// outcome; a caller whose ctx ends leaves without cancelling it for the
// others. The credential is persisted once, after the profile is fetched.
func (p *SpotifyProvider) SignIn(ctx context.Context) (*models.SocialUser, error) {
	flight := p.join(ctx)
	defer p.leave(flight)

	for attempt := 0; ; attempt++ {
		ch := p.signIns.DoChan(signInKey, func() (any, error) {
			return p.signIn(flight.ctx)
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			// joined a run every earlier caller abandoned
			if errors.Is(res.Err, context.Canceled) && flight.ctx.Err() == nil && attempt == 0 {
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			if res.Shared {
				logger.Debug("Sign in shared with a concurrent caller")
			}
			user := *res.Val.(*models.SocialUser)
			return &user, nil
		}
	}
}

func (p *SpotifyProvider) join(ctx context.Context) *signInFlight {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.flight == nil {
		flightCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		p.flight = &signInFlight{ctx: flightCtx, cancel: cancel}
	}
	p.flight.waiters++
	return p.flight
}

func (p *SpotifyProvider) leave(f *signInFlight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if p.flight == f {
		p.flight = nil
	}
}

func (p *SpotifyProvider) signIn(ctx context.Context) (*models.SocialUser, error) {
	token, err := p.popup.Run(ctx, p.AuthorizationURL())
	if err != nil {
		return nil, err
	}

	user, err := p.fetcher.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	p.tokens.Persist(token)
	logger.Info("Signed in with Spotify", zap.String("user_id", user.ID))
	return user, nil
}

// SignOut clears the stored credential
func (p *SpotifyProvider) SignOut(ctx context.Context) error {
	if _, ok := p.tokens.Retrieve(); !ok {
		return ErrNotLoggedIn
	}
	p.tokens.Clear()
	logger.Info("Signed out of Spotify")
	return nil
}

// IsNotLoggedIn reports whether err means there was no stored credential
func IsNotLoggedIn(err error) bool {
	return errors.Is(err, ErrNotLoggedIn)
}
