package popup

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// StateKind enumerates the supervisor's states
type StateKind int

const (
	Opening StateKind = iota
	Polling
	Succeeded
	Failed
)

func (k StateKind) String() string {
	switch k {
	case Opening:
		return "opening"
	case Polling:
		return "polling"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is a tagged supervisor state. Token is set only when Succeeded, Err
// only when Failed.
type State struct {
	Kind  StateKind
	Token string
	Err   error
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s.Kind == Succeeded || s.Kind == Failed
}

func succeeded(token string) State { return State{Kind: Succeeded, Token: token} }
func failed(err error) State       { return State{Kind: Failed, Err: err} }

var polling = State{Kind: Polling}

// Redirect parameters of the implicit grant
const (
	paramAccessToken      = "access_token"
	paramError            = "error"
	paramErrorDescription = "error_description"
)

// Evaluate performs one poll tick against w, whose host page lives at
// origin. It returns Polling while nothing conclusive was observed. The
// caller must close the window on any terminal state.
func Evaluate(w Window, origin *url.URL) State {
	if w.Closed() {
		return failed(ErrWindowClosed)
	}

	loc, err := w.Location()
	if err != nil {
		if IsCrossOriginError(err) {
			return polling
		}
		return failed(&UnexpectedError{Err: err})
	}
	if loc == nil || !SameOrigin(loc, origin) {
		return polling
	}

	if fragment := loc.EscapedFragment(); fragment != "" {
		params, err := url.ParseQuery(fragment)
		if err != nil {
			return failed(fmt.Errorf("%w: malformed redirect fragment: %v", ErrAuthenticationFailed, err))
		}
		if token := params.Get(paramAccessToken); token != "" {
			return succeeded(token)
		}
		return failed(ErrAuthenticationFailed)
	}

	query := loc.Query()
	if code := query.Get(paramError); code != "" {
		return failed(&ProviderError{Code: code, Description: query.Get(paramErrorDescription)})
	}

	// back on the host origin but mid navigation
	return polling
}

// SameOrigin compares scheme, host and effective port
func SameOrigin(a, b *url.URL) bool {
	if a == nil || b == nil {
		return false
	}
	return originOf(a) == originOf(b)
}

func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}
