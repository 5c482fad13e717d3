package providers

import (
	"context"
	"fmt"

	"github.com/brizzai/popup-login/internal/auth/constants"
	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/requester"
	"go.uber.org/zap"
)

// Requester is the slice of the HTTP helper the profile fetcher needs
type Requester interface {
	SendJSON(ctx context.Context, req *requester.Request, auth requester.AuthManager, out any) error
}

// spotifyProfile is the subset of GET /v1/me we read
type spotifyProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// SpotifyProfileFetcher reads the current user's profile with a bearer token
type SpotifyProfileFetcher struct {
	requester  Requester
	profileURL string
}

var _ ProfileFetcher = (*SpotifyProfileFetcher)(nil)

// NewSpotifyProfileFetcher creates a fetcher against profileURL, or the
// public endpoint when it is empty
func NewSpotifyProfileFetcher(r Requester, profileURL string) *SpotifyProfileFetcher {
	if profileURL == "" {
		profileURL = constants.ProfileURL
	}
	return &SpotifyProfileFetcher{
		requester:  r,
		profileURL: profileURL,
	}
}

// FetchProfile issues one GET and maps the response. Failures are returned
// as is and never retried.
func (f *SpotifyProfileFetcher) FetchProfile(ctx context.Context, token string) (*models.SocialUser, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	var profile spotifyProfile
	err := f.requester.SendJSON(ctx, &requester.Request{URL: f.profileURL}, requester.NewBearerAuth(token), &profile)
	if err != nil {
		logger.Warn("Failed to fetch Spotify profile", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	user := &models.SocialUser{
		Provider:  constants.ProviderID,
		ID:        profile.ID,
		Name:      profile.DisplayName,
		Email:     profile.Email,
		AuthToken: token,
	}
	if len(profile.Images) > 0 {
		user.PhotoURL = profile.Images[0].URL
	}
	return user, nil
}
