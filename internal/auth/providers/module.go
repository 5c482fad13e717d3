package providers

import (
	"fmt"

	"github.com/brizzai/popup-login/internal/auth/constants"
	"github.com/brizzai/popup-login/internal/config"
	"github.com/brizzai/popup-login/internal/popup"
	"github.com/brizzai/popup-login/internal/popup/loopback"
	"github.com/brizzai/popup-login/internal/requester"
	"github.com/brizzai/popup-login/internal/storage"
	"github.com/brizzai/popup-login/internal/tokenstore"
	"go.uber.org/fx"
)

// NewPopupRunner supervises a loopback browser window for the configured
// redirect URI
func NewPopupRunner(cfg *config.Config) (PopupRunner, error) {
	opener, err := loopback.NewOpener(cfg.Spotify.RedirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to create popup opener: %w", err)
	}
	origin, err := popup.OriginFromRedirectURI(cfg.Spotify.RedirectURI)
	if err != nil {
		return nil, err
	}

	width, height := cfg.Popup.Width, cfg.Popup.Height
	if width <= 0 {
		width = constants.PopupWidth
	}
	if height <= 0 {
		height = constants.PopupHeight
	}

	return popup.NewSupervisor(opener, popup.Options{
		Origin:       origin,
		Name:         constants.PopupName,
		Screen:       popup.Screen{Width: cfg.Popup.ScreenWidth, Height: cfg.Popup.ScreenHeight},
		Width:        width,
		Height:       height,
		PollInterval: cfg.Popup.PollInterval,
		Timeout:      cfg.Popup.Timeout,
	})
}

// NewProfileFetcher creates the Spotify profile fetcher
func NewProfileFetcher(r *requester.HTTPRequester, cfg *config.Config) ProfileFetcher {
	return NewSpotifyProfileFetcher(r, cfg.Spotify.ProfileURL)
}

// NewLoginProvider builds the Spotify provider from configuration
func NewLoginProvider(cfg *config.Config, runner PopupRunner, fetcher ProfileFetcher, store storage.Store) LoginProvider {
	req := NewAuthorizationRequest(cfg.Spotify.ClientID, cfg.Spotify.RedirectURI, cfg.Spotify.Scopes, cfg.Spotify.ShowDialog)
	return NewSpotifyProvider(req, cfg.Spotify.AuthURL, runner, fetcher, tokenstore.New(store, constants.ProviderID))
}

// Module provides the Spotify login provider
var Module = fx.Module("providers",
	fx.Provide(
		NewPopupRunner,
		NewProfileFetcher,
		NewLoginProvider,
	),
)
