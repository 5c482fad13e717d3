package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as the "operation" label
const (
	OpInitialize     = "initialize"
	OpGetLoginStatus = "get_login_status"
	OpSignIn         = "sign_in"
	OpSignOut        = "sign_out"
)

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeNotLoggedIn = "not_logged_in"
	OutcomeError       = "error"
)

var (
	Operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "popup_login_operations_total",
		Help: "Login operations by provider, operation and outcome",
	}, []string{"provider", "operation", "outcome"})

	SignInDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "popup_login_sign_in_duration_seconds",
		Help:    "Time from opening the popup to a settled sign in",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"provider", "outcome"})
)

// Register registers the login metrics on reg, or the default registerer
// when reg is nil. Registering twice is not an error.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Operations, SignInDuration} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return err
			}
		}
	}
	return nil
}

// ObserveOperation counts one finished operation
func ObserveOperation(provider, operation, outcome string) {
	Operations.WithLabelValues(provider, operation, outcome).Inc()
}

// ObserveSignIn records a finished sign in's duration
func ObserveSignIn(provider, outcome string, d time.Duration) {
	SignInDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}
