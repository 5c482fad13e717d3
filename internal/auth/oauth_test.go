package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/auth/providers"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockProvider implements providers.LoginProvider for testing
type mockProvider struct {
	user    *models.SocialUser
	err     error
	signIns int
}

func (m *mockProvider) ID() string                           { return "SPOTIFY" }
func (m *mockProvider) Initialize(ctx context.Context) error { return nil }
func (m *mockProvider) GetLoginStatus(ctx context.Context) (*models.SocialUser, error) {
	return m.user, m.err
}
func (m *mockProvider) SignIn(ctx context.Context) (*models.SocialUser, error) {
	m.signIns++
	return m.user, m.err
}
func (m *mockProvider) SignOut(ctx context.Context) error { return m.err }

func TestNewService(t *testing.T) {
	provider := &mockProvider{}
	s := NewService(provider)
	assert.Same(t, provider, s.GetProvider())
	assert.NoError(t, s.Initialize(context.Background()))
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: metrics.OutcomeSuccess},
		{name: "not logged in", err: providers.ErrNotLoggedIn, want: metrics.OutcomeNotLoggedIn},
		{name: "other", err: errors.New("boom"), want: metrics.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

func TestService_RecordsOutcomes(t *testing.T) {
	metrics.Operations.Reset()
	metrics.SignInDuration.Reset()
	core, logs := observer.New(zap.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })

	ok := NewService(&mockProvider{user: &models.SocialUser{ID: "u1", AuthToken: "ABC123"}})
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ok.now = func() time.Time {
		clock = clock.Add(2 * time.Second)
		return clock
	}

	user, err := ok.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	out := NewService(&mockProvider{err: providers.ErrNotLoggedIn})
	_, err = out.GetLoginStatus(context.Background())
	assert.ErrorIs(t, err, providers.ErrNotLoggedIn)
	assert.ErrorIs(t, out.SignOut(context.Background()), providers.ErrNotLoggedIn)

	failing := NewService(&mockProvider{err: errors.New("window closed")})
	_, err = failing.SignIn(context.Background())
	assert.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("SPOTIFY", metrics.OpSignIn, metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("SPOTIFY", metrics.OpSignIn, metrics.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("SPOTIFY", metrics.OpGetLoginStatus, metrics.OutcomeNotLoggedIn)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("SPOTIFY", metrics.OpSignOut, metrics.OutcomeNotLoggedIn)))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.SignInDuration))

	warnings := logs.FilterMessage("Login operation failed").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "window closed", warnings[0].ContextMap()["error"])
}
