package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/auth"
	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/metrics"
	"bookshelf/internal/model"
)

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return tokens
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name          string
		setupMock     func(*MockUserService)
		expectedError error
		success       float64
		failure       float64
	}{
		{
			name: "successful login",
			setupMock: func(m *MockUserService) {
				m.On("VerifyCredentials", mock.Anything, "alice", "secret1").
					Return(&model.User{ID: 7, Username: "alice", Active: true}, nil)
			},
			success: 1,
		},
		{
			name: "bad credentials",
			setupMock: func(m *MockUserService) {
				m.On("VerifyCredentials", mock.Anything, "alice", "secret1").
					Return(nil, apperrors.ErrInvalidCredentials)
			},
			expectedError: apperrors.ErrInvalidCredentials,
			failure:       1,
		},
		{
			name: "storage failure is not counted",
			setupMock: func(m *MockUserService) {
				m.On("VerifyCredentials", mock.Anything, "alice", "secret1").
					Return(nil, errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserService)
			tt.setupMock(users)
			m := metrics.New()
			tokens := newTokens(t)

			svc := NewAuthService(users, tokens, nil, m, discardLogger())
			token, user, err := svc.Login(context.Background(), "alice", "secret1")

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, token)
			case tt.success == 0:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, uint(7), user.ID)
				id, err := tokens.Verify(token)
				require.NoError(t, err)
				assert.Equal(t, uint(7), id)
			}

			assert.Equal(t, tt.success, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("success")))
			assert.Equal(t, tt.failure, testutil.ToFloat64(m.AuthAttempts.WithLabelValues("failure")))
			users.AssertExpectations(t)
		})
	}
}

func TestAuthService_Logout(t *testing.T) {
	tokens := newTokens(t)
	token, err := tokens.Issue(7)
	require.NoError(t, err)
	claims, err := tokens.Parse(token)
	require.NoError(t, err)

	t.Run("revokes jti until expiry", func(t *testing.T) {
		store := new(MockRevocationStore)
		store.On("Revoke", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
			return ttl > 0 && ttl <= time.Hour
		})).Return(nil)

		svc := NewAuthService(new(MockUserService), tokens, store, nil, discardLogger())
		require.NoError(t, svc.Logout(context.Background(), token))
		store.AssertExpectations(t)
	})

	t.Run("invalid token", func(t *testing.T) {
		store := new(MockRevocationStore)
		svc := NewAuthService(new(MockUserService), tokens, store, nil, discardLogger())

		err := svc.Logout(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		store.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("without revocation store", func(t *testing.T) {
		svc := NewAuthService(new(MockUserService), tokens, nil, nil, discardLogger())
		assert.NoError(t, svc.Logout(context.Background(), token))
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockRevocationStore)
		store.On("Revoke", mock.Anything, claims.ID, mock.Anything).Return(errors.New("redis down"))

		svc := NewAuthService(new(MockUserService), tokens, store, nil, discardLogger())
		assert.Error(t, svc.Logout(context.Background(), token))
	})
}
