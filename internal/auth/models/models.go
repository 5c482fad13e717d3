package models

import "strings"

// SocialUser is the provider agnostic user record every login strategy
// produces. Fields a provider does not supply are left empty.
type SocialUser struct {
	Provider          string `json:"provider"`
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PhotoURL          string `json:"photoUrl"`
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	AuthToken         string `json:"authToken"`
	IDToken           string `json:"idToken"`
	AuthorizationCode string `json:"authorizationCode"`
	Response          string `json:"response"`
}

// AuthorizationRequest fully determines an implicit grant authorization URL.
// Treat it as immutable once built.
type AuthorizationRequest struct {
	ClientID    string
	RedirectURI string
	// Scopes are joined by a single space when serialized
	Scopes []string
	// ShowDialog nil means true
	ShowDialog   *bool
	ResponseType string
}

// Scope returns the serialized scope parameter
func (r AuthorizationRequest) Scope() string {
	return strings.Join(r.Scopes, " ")
}

// ShowDialogValue resolves the dialog preference, defaulting to true
func (r AuthorizationRequest) ShowDialogValue() bool {
	if r.ShowDialog == nil {
		return true
	}
	return *r.ShowDialog
}
