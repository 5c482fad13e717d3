package auth

import (
	"context"
	"errors"
	"time"

	"github.com/brizzai/popup-login/internal/auth/models"
	"github.com/brizzai/popup-login/internal/auth/providers"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Service represents the login service a host talks to. It wraps a
// provider's operations with logging and metrics.
type Service struct {
	provider providers.LoginProvider
	now      func() time.Time
}

// NewService creates a new login service
func NewService(provider providers.LoginProvider) *Service {
	return &Service{
		provider: provider,
		now:      time.Now,
	}
}

// GetProvider returns the wrapped provider
func (s *Service) GetProvider() providers.LoginProvider {
	return s.provider
}

// Initialize prepares the provider
func (s *Service) Initialize(ctx context.Context) error {
	err := s.provider.Initialize(ctx)
	s.observe(metrics.OpInitialize, err)
	return err
}

// GetLoginStatus returns the user for the stored credential
func (s *Service) GetLoginStatus(ctx context.Context) (*models.SocialUser, error) {
	user, err := s.provider.GetLoginStatus(ctx)
	s.observe(metrics.OpGetLoginStatus, err)
	return user, err
}

// SignIn runs the interactive login
func (s *Service) SignIn(ctx context.Context) (*models.SocialUser, error) {
	start := s.now()
	logger.Info("Starting sign in", zap.String("provider", s.provider.ID()))

	user, err := s.provider.SignIn(ctx)
	outcome := s.observe(metrics.OpSignIn, err)
	metrics.ObserveSignIn(s.provider.ID(), outcome, s.now().Sub(start))
	return user, err
}

// SignOut forgets the stored credential
func (s *Service) SignOut(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	s.observe(metrics.OpSignOut, err)
	return err
}

func (s *Service) observe(op string, err error) string {
	outcome := Outcome(err)
	metrics.ObserveOperation(s.provider.ID(), op, outcome)

	fields := []zap.Field{zap.String("provider", s.provider.ID()), zap.String("operation", op), zap.String("outcome", outcome)}
	switch outcome {
	case metrics.OutcomeError:
		logger.Warn("Login operation failed", append(fields, zap.Error(err))...)
	default:
		logger.Debug("Login operation finished", fields...)
	}
	return outcome
}

// Outcome classifies an operation's error into a metrics outcome
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, providers.ErrNotLoggedIn):
		return metrics.OutcomeNotLoggedIn
	default:
		return metrics.OutcomeError
	}
}

// Module provides the login service
var Module = fx.Module("auth",
	fx.Provide(NewService),
)
