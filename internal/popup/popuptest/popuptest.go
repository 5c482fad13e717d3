// Package popuptest provides scripted popup windows and manual tickers for
// driving a popup.Supervisor without a browser or real timers.
package popuptest

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brizzai/popup-login/internal/popup"
)

// Step is what the window shows on one poll tick
type Step struct {
	Closed   bool
	Location string
	Err      error
}

// CrossOrigin is a step on the provider's origin
func CrossOrigin() Step {
	return Step{Err: popup.ErrCrossOrigin}
}

// At is a step with a readable location
func At(rawURL string) Step {
	return Step{Location: rawURL}
}

// UserClosed is a step where the user has closed the popup
func UserClosed() Step {
	return Step{Closed: true}
}

// Window replays Steps, advancing one step per Location call. The last
// step repeats.
type Window struct {
	mu         sync.Mutex
	steps      []Step
	reads      int
	closeCalls int
	closedByUs bool
}

var _ popup.Window = (*Window)(nil)

func NewWindow(steps ...Step) *Window {
	if len(steps) == 0 {
		steps = []Step{CrossOrigin()}
	}
	return &Window{steps: steps}
}

func (w *Window) current() Step {
	i := w.reads
	if i >= len(w.steps) {
		i = len(w.steps) - 1
	}
	return w.steps[i]
}

func (w *Window) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closedByUs || w.current().Closed
}

func (w *Window) Location() (*url.URL, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	step := w.current()
	w.reads++
	if step.Err != nil {
		return nil, step.Err
	}
	return url.Parse(step.Location)
}

func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeCalls++
	w.closedByUs = true
	return nil
}

// Reads returns how many times Location was called
func (w *Window) Reads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reads
}

// CloseCalls returns how many times Close was called
func (w *Window) CloseCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCalls
}

// Opener hands out a fixed window and records what it was asked to open
type Opener struct {
	Window popup.Window
	Err    error

	mu       sync.Mutex
	urls     []string
	features []popup.Features
}

var _ popup.Opener = (*Opener)(nil)

func (o *Opener) Open(_ context.Context, rawURL string, features popup.Features) (popup.Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, rawURL)
	o.features = append(o.features, features)
	return o.Window, o.Err
}

// URLs returns every URL passed to Open
func (o *Opener) URLs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.urls...)
}

// Features returns every feature set passed to Open
func (o *Opener) Features() []popup.Features {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]popup.Features(nil), o.features...)
}

// Ticker is a manual popup.Ticker. Ticks are delivered with Tick.
type Ticker struct {
	ch       chan time.Time
	stopped  atomic.Bool
	interval atomic.Int64
}

var _ popup.Ticker = (*Ticker)(nil)

// NewTicker returns a Ticker buffering up to 1024 ticks
func NewTicker() *Ticker {
	return &Ticker{ch: make(chan time.Time, 1024)}
}

// Func returns a popup.TickerFunc handing out t
func (t *Ticker) Func() popup.TickerFunc {
	return func(d time.Duration) popup.Ticker {
		t.interval.Store(int64(d))
		return t
	}
}

func (t *Ticker) C() <-chan time.Time { return t.ch }
func (t *Ticker) Stop()               { t.stopped.Store(true) }

// Tick queues n ticks
func (t *Ticker) Tick(n int) {
	for i := 0; i < n; i++ {
		t.ch <- time.Now()
	}
}

// Stopped reports whether Stop was called
func (t *Ticker) Stopped() bool { return t.stopped.Load() }

// Interval returns the interval the ticker was created with
func (t *Ticker) Interval() time.Duration { return time.Duration(t.interval.Load()) }
