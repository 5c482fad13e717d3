package constants

const (
	// ProviderID identifies Spotify in the login registry and in storage keys
	ProviderID = "SPOTIFY"

	// AuthURL is Spotify's authorization endpoint
	AuthURL = "https://accounts.spotify.com/authorize"

	// ProfileURL returns the current user's profile
	ProfileURL = "https://api.spotify.com/v1/me"

	// ResponseTypeToken selects the implicit grant
	ResponseTypeToken = "token"
)

// Popup window defaults
const (
	PopupName   = "spotify-popup"
	PopupWidth  = 500
	PopupHeight = 600
)

// Authorization parameters set on top of the oauth2 defaults
const (
	ParamShowDialog   = "show_dialog"
	ParamResponseType = "response_type"
	ParamScope        = "scope"
)
