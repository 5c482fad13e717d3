package providers

import (
	"strconv"

	"github.com/brizzai/popup-login/internal/auth/constants"
	"github.com/brizzai/popup-login/internal/auth/models"
	"golang.org/x/oauth2"
)

// NewAuthorizationRequest builds the implicit grant request. Blank scopes are
// dropped; a single pre-joined scope string passes through unchanged.
func NewAuthorizationRequest(clientID, redirectURI string, scopes []string, showDialog *bool) models.AuthorizationRequest {
	cleaned := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}

	var dialog *bool
	if showDialog != nil {
		v := *showDialog
		dialog = &v
	}

	return models.AuthorizationRequest{
		ClientID:     clientID,
		RedirectURI:  redirectURI,
		Scopes:       cleaned,
		ShowDialog:   dialog,
		ResponseType: constants.ResponseTypeToken,
	}
}

// BuildAuthorizationURL serializes req against the authorize endpoint. The
// result carries client_id, show_dialog, redirect_uri, response_type and
// scope and nothing else.
func BuildAuthorizationURL(authURL string, req models.AuthorizationRequest) string {
	if authURL == "" {
		authURL = constants.AuthURL
	}
	responseType := req.ResponseType
	if responseType == "" {
		responseType = constants.ResponseTypeToken
	}

	cfg := &oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Endpoint:    oauth2.Endpoint{AuthURL: authURL},
	}

	return cfg.AuthCodeURL("",
		oauth2.SetAuthURLParam(constants.ParamResponseType, responseType),
		oauth2.SetAuthURLParam(constants.ParamShowDialog, strconv.FormatBool(req.ShowDialogValue())),
		oauth2.SetAuthURLParam(constants.ParamScope, req.Scope()),
	)
}
