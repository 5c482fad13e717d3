package providers

import (
	"context"
	"errors"

	"github.com/brizzai/popup-login/internal/auth/models"
)

// LoginProvider is the contract a social login strategy offers its host
type LoginProvider interface {
	// ID identifies the provider in storage keys and messages
	ID() string

	// Initialize prepares the provider. It may be a no-op.
	Initialize(ctx context.Context) error

	// GetLoginStatus resolves the stored credential into a user
	GetLoginStatus(ctx context.Context) (*models.SocialUser, error)

	// SignIn runs the interactive login and returns the signed in user
	SignIn(ctx context.Context) (*models.SocialUser, error)

	// SignOut forgets the stored credential
	SignOut(ctx context.Context) error
}

// ProfileFetcher turns an access token into a user record
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (*models.SocialUser, error)
}

// PopupRunner drives one interactive authorization and returns its token
type PopupRunner interface {
	Run(ctx context.Context, authURL string) (string, error)
}

// ErrEmptyToken is returned when a profile is requested without a token
var ErrEmptyToken = errors.New("access token is empty")
