package popup

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPopupBlocked means the popup could not be opened
	ErrPopupBlocked = errors.New("unable to open authentication popup window")
	// ErrWindowClosed means the user closed the popup before the flow completed
	ErrWindowClosed = errors.New("authentication window was closed")
	// ErrAuthenticationFailed means the popup came back without a usable token
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrTimeout means the popup outlived the configured ceiling
	ErrTimeout = errors.New("authentication timed out")
	// ErrCrossOrigin is what a Window returns while its location is on a
	// foreign origin. The text matches the browser's.
	ErrCrossOrigin = errors.New("Blocked a frame with origin from accessing a cross-origin frame")
)

// crossOriginPhrases are the messages environments use for a denied read
// of a cross-origin window
var crossOriginPhrases = []string{
	"Blocked a frame with origin",
	"Permission denied to access property",
	"cross-origin frame",
}

// IsCrossOriginError reports whether err is the benign failure to read a
// popup's location while it is on another origin
func IsCrossOriginError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCrossOrigin) {
		return true
	}
	msg := err.Error()
	for _, phrase := range crossOriginPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// ProviderError carries the error the provider redirected back with. Its
// message is the provider's description, or the error code without one.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Description
}

// UnexpectedError wraps a location read failure that was not a cross-origin
// denial
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error while polling popup: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }
