package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookshelf/internal/auth"
	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/metrics"
	"bookshelf/internal/model"
)

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, username, password string) (accessToken string, user *model.User, err error)
	Logout(ctx context.Context, accessToken string) error
}

type authService struct {
	users      UserService
	tokens     *auth.TokenService
	revocation auth.RevocationStore
	metrics    *metrics.Metrics
	log        *slog.Logger
}

// NewAuthService creates a new authentication service. revocation and m may be nil.
func NewAuthService(users UserService, tokens *auth.TokenService, revocation auth.RevocationStore, m *metrics.Metrics, log *slog.Logger) AuthService {
	return &authService{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
		metrics:    m,
		log:        log,
	}
}

// Login verifies credentials and issues an access token.
func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.users.VerifyCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			s.metrics.ObserveLogin(false)
			s.log.InfoContext(ctx, "login rejected", slog.String("username", username))
		}
		return "", nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}

	s.metrics.ObserveLogin(true)
	s.log.DebugContext(ctx, "login succeeded", slog.Uint64("user_id", uint64(user.ID)))
	return token, user, nil
}

// Logout revokes the token until its natural expiry.
func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Parse(accessToken)
	if err != nil {
		return err
	}
	if s.revocation == nil || claims.ID == "" {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.revocation.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
