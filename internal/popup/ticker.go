package popup

import "time"

// Ticker delivers poll ticks. Tests drive the supervisor with a manual one.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

// NewTicker wraps time.NewTicker
func NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }
