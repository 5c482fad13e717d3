// Package popup supervises an authorization popup window through the
// implicit grant redirect and yields exactly one outcome: an access token or
// an error.
//
// The opener has no message channel from the popup. While the popup shows the
// provider's pages its location cannot be read, so the supervisor polls it on
// a fixed interval until the user closes it or it navigates back to the host
// origin.
package popup

import (
	"context"
	"fmt"
	"net/url"
)

// Window is a handle on an opened popup
type Window interface {
	// Closed reports whether the popup has been closed, by the user or by Close
	Closed() bool
	// Location returns the popup's current URL. While the popup is on a
	// foreign origin it fails with an error IsCrossOriginError accepts.
	Location() (*url.URL, error)
	// Close closes the popup
	Close() error
}

// Opener opens popups. A nil Window or ErrPopupBlocked means the environment
// refused to open one.
type Opener interface {
	Open(ctx context.Context, rawURL string, features Features) (Window, error)
}

// OpenerFunc adapts a function to Opener
type OpenerFunc func(ctx context.Context, rawURL string, features Features) (Window, error)

func (f OpenerFunc) Open(ctx context.Context, rawURL string, features Features) (Window, error) {
	return f(ctx, rawURL, features)
}

// Screen is the size of the display the popup is centered on
type Screen struct {
	Width  int
	Height int
}

// Features describes the popup window's name, geometry and chrome
type Features struct {
	Name       string
	Width      int
	Height     int
	Left       int
	Top        int
	Resizable  bool
	Scrollbars bool
	Status     bool
}

// CenteredFeatures places a width x height popup in the middle of screen
func CenteredFeatures(name string, screen Screen, width, height int) Features {
	return Features{
		Name:       name,
		Width:      width,
		Height:     height,
		Left:       screen.Width/2 - width/2,
		Top:        screen.Height/2 - height/2,
		Resizable:  true,
		Scrollbars: true,
		Status:     true,
	}
}

// String renders the window.open feature list
func (f Features) String() string {
	return fmt.Sprintf("width=%d,height=%d,left=%d,top=%d,resizable=%s,scrollbars=%s,status=%s",
		f.Width, f.Height, f.Left, f.Top, yesNo(f.Resizable), yesNo(f.Scrollbars), yesNo(f.Status))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
