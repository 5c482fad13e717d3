package requester

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthManager handles request authentication
type AuthManager interface {
	ApplyAuth(req *http.Request) error
}

// NoAuth leaves requests untouched
type NoAuth struct{}

func (NoAuth) ApplyAuth(*http.Request) error { return nil }

// BearerAuth sets "Authorization: Bearer <token>" from a token source
type BearerAuth struct {
	Source oauth2.TokenSource
}

// NewBearerAuth authenticates with a fixed access token
func NewBearerAuth(accessToken string) *BearerAuth {
	return &BearerAuth{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		}),
	}
}

// ApplyAuth adds authentication to the request
func (a *BearerAuth) ApplyAuth(req *http.Request) error {
	if a.Source == nil {
		return fmt.Errorf("bearer auth has no token source")
	}
	token, err := a.Source.Token()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("bearer auth token is empty")
	}
	token.SetAuthHeader(req)
	return nil
}
