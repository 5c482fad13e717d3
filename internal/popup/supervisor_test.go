package popup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brizzai/popup-login/internal/popup"
	"github.com/brizzai/popup-login/internal/popup/popuptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authURL = "https://accounts.spotify.com/authorize?client_id=abc"

type result struct {
	token string
	err   error
}

func newSupervisor(t *testing.T, opener popup.Opener, ticker *popuptest.Ticker, mutate ...func(*popup.Options)) *popup.Supervisor {
	t.Helper()
	opts := popup.Options{
		Origin:       hostOrigin,
		Name:         "spotify-popup",
		Screen:       popup.Screen{Width: 1920, Height: 1080},
		Width:        500,
		Height:       600,
		PollInterval: 100 * time.Millisecond,
		NewTicker:    ticker.Func(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	s, err := popup.NewSupervisor(opener, opts)
	require.NoError(t, err)
	return s
}

func runAsync(ctx context.Context, s *popup.Supervisor) <-chan result {
	done := make(chan result, 1)
	go func() {
		token, err := s.Run(ctx, authURL)
		done <- result{token: token, err: err}
	}()
	return done
}

func wait(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not settle")
		return result{}
	}
}

func TestSupervisor_FragmentSuccess(t *testing.T) {
	w := popuptest.NewWindow(
		popuptest.CrossOrigin(),
		popuptest.CrossOrigin(),
		popuptest.At("http://127.0.0.1:8888/callback"),
		popuptest.At("http://127.0.0.1:8888/callback#access_token=ABC123&token_type=Bearer"),
	)
	opener := &popuptest.Opener{Window: w}
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, opener, ticker)

	ticker.Tick(4)
	r := wait(t, runAsync(context.Background(), s))

	require.NoError(t, r.err)
	assert.Equal(t, "ABC123", r.token)
	assert.Equal(t, 4, w.Reads())
	assert.Equal(t, 1, w.CloseCalls())
	assert.True(t, ticker.Stopped())
	assert.Equal(t, 100*time.Millisecond, ticker.Interval())

	assert.Equal(t, []string{authURL}, opener.URLs())
	features := opener.Features()
	require.Len(t, features, 1)
	assert.Equal(t, "spotify-popup", features[0].Name)
	assert.Equal(t, 710, features[0].Left)
}

func TestSupervisor_ClosedBeforeReturn(t *testing.T) {
	w := popuptest.NewWindow(popuptest.CrossOrigin(), popuptest.UserClosed())
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, &popuptest.Opener{Window: w}, ticker)

	ticker.Tick(2)
	r := wait(t, runAsync(context.Background(), s))

	assert.ErrorIs(t, r.err, popup.ErrWindowClosed)
	assert.Empty(t, r.token)
	assert.True(t, ticker.Stopped())
	assert.Equal(t, 0, w.CloseCalls(), "an already closed window is not closed again")
}

func TestSupervisor_ProviderError(t *testing.T) {
	w := popuptest.NewWindow(
		popuptest.CrossOrigin(),
		popuptest.At("http://127.0.0.1:8888/callback?error=access_denied&error_description=User%20denied"),
	)
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, &popuptest.Opener{Window: w}, ticker)

	ticker.Tick(2)
	r := wait(t, runAsync(context.Background(), s))

	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "User denied")
	assert.Equal(t, 1, w.CloseCalls())
	assert.True(t, ticker.Stopped())
}

func TestSupervisor_UnexpectedErrorAbortsImmediately(t *testing.T) {
	w := popuptest.NewWindow(
		popuptest.Step{Err: errors.New("InvalidStateError: window detached")},
		popuptest.At("http://127.0.0.1:8888/callback#access_token=late"),
	)
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, &popuptest.Opener{Window: w}, ticker)

	ticker.Tick(2)
	r := wait(t, runAsync(context.Background(), s))

	var unexpected *popup.UnexpectedError
	require.ErrorAs(t, r.err, &unexpected)
	assert.Contains(t, r.err.Error(), "window detached")
	assert.Equal(t, 1, w.Reads(), "no tick after the fatal one is evaluated")
	assert.Equal(t, 1, w.CloseCalls())
	assert.True(t, ticker.Stopped())
}

func TestSupervisor_CrossOriginKeepsPolling(t *testing.T) {
	w := popuptest.NewWindow(popuptest.CrossOrigin())
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, &popuptest.Opener{Window: w}, ticker)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, s)

	ticker.Tick(25)
	require.Eventually(t, func() bool { return w.Reads() == 25 }, 2*time.Second, time.Millisecond)

	select {
	case r := <-done:
		t.Fatalf("settled while still on provider origin: %+v", r)
	default:
	}
	assert.False(t, ticker.Stopped())

	cancel()
	r := wait(t, done)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.True(t, ticker.Stopped())
	assert.Equal(t, 1, w.CloseCalls())
}

func TestSupervisor_PopupBlocked(t *testing.T) {
	tests := []struct {
		name   string
		opener *popuptest.Opener
	}{
		{name: "nil window", opener: &popuptest.Opener{}},
		{name: "blocked error", opener: &popuptest.Opener{Err: popup.ErrPopupBlocked}},
		{name: "other open error", opener: &popuptest.Opener{Err: errors.New("no display")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticker := popuptest.NewTicker()
			s := newSupervisor(t, tt.opener, ticker)

			token, err := s.Run(context.Background(), authURL)
			assert.Empty(t, token)
			assert.ErrorIs(t, err, popup.ErrPopupBlocked)
			assert.Zero(t, ticker.Interval(), "no polling starts")
		})
	}
}

func TestSupervisor_Timeout(t *testing.T) {
	w := popuptest.NewWindow(popuptest.CrossOrigin())
	ticker := popuptest.NewTicker()
	s := newSupervisor(t, &popuptest.Opener{Window: w}, ticker, func(o *popup.Options) {
		o.Timeout = 20 * time.Millisecond
	})

	r := wait(t, runAsync(context.Background(), s))
	assert.ErrorIs(t, r.err, popup.ErrTimeout)
	assert.True(t, ticker.Stopped())
	assert.Equal(t, 1, w.CloseCalls())
}

func TestSupervisor_RealTicker(t *testing.T) {
	w := popuptest.NewWindow(
		popuptest.CrossOrigin(),
		popuptest.At("http://127.0.0.1:8888/callback#access_token=tok"),
	)
	s, err := popup.NewSupervisor(&popuptest.Opener{Window: w}, popup.Options{
		Origin:       hostOrigin,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)

	token, err := s.Run(context.Background(), authURL)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestNewSupervisor_Validation(t *testing.T) {
	_, err := popup.NewSupervisor(nil, popup.Options{Origin: hostOrigin})
	assert.Error(t, err)

	_, err = popup.NewSupervisor(&popuptest.Opener{}, popup.Options{})
	assert.Error(t, err)
}

func TestOriginFromRedirectURI(t *testing.T) {
	origin, err := popup.OriginFromRedirectURI("http://127.0.0.1:8888/callback?x=1")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8888", origin.String())

	_, err = popup.OriginFromRedirectURI("/callback")
	assert.Error(t, err)
}
