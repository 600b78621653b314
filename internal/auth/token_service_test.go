package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bookshelf/internal/errors"
)

func newTestTokenService(t *testing.T, secret string) *TokenService {
	t.Helper()
	svc, err := NewTokenService(TokenConfig{Secret: []byte(secret)})
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TokenConfig
		wantErr bool
	}{
		{name: "defaults", cfg: TokenConfig{Secret: []byte("k")}},
		{name: "hs512", cfg: TokenConfig{Secret: []byte("k"), Algorithm: "HS512", TTL: time.Hour}},
		{name: "empty secret", cfg: TokenConfig{}, wantErr: true},
		{name: "asymmetric algorithm", cfg: TokenConfig{Secret: []byte("k"), Algorithm: "RS256"}, wantErr: true},
		{name: "unknown algorithm", cfg: TokenConfig{Secret: []byte("k"), Algorithm: "none"}, wantErr: true},
		{name: "negative ttl", cfg: TokenConfig{Secret: []byte("k"), TTL: -time.Minute}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(t, "test-secret")

	token, err := svc.Issue(42)
	require.NoError(t, err)

	userID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_UniqueTokenIDs(t *testing.T) {
	svc := newTestTokenService(t, "test-secret")
	a, err := svc.Issue(1)
	require.NoError(t, err)
	b, err := svc.Issue(1)
	require.NoError(t, err)

	ca, _ := svc.Parse(a)
	cb, _ := svc.Parse(b)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestTokenService(t, "test-secret")
	svc.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }

	token, err := svc.Issue(7)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_WrongSecret(t *testing.T) {
	issuer := newTestTokenService(t, "secret-a")
	verifier := newTestTokenService(t, "secret-b")

	token, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_RejectsOtherAlgorithm(t *testing.T) {
	hs512, err := NewTokenService(TokenConfig{Secret: []byte("same"), Algorithm: "HS512"})
	require.NoError(t, err)
	hs256 := newTestTokenService(t, "same")

	token, err := hs512.Issue(7)
	require.NoError(t, err)

	_, err = hs256.Verify(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_MalformedAndForged(t *testing.T) {
	svc := newTestTokenService(t, "test-secret")

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})
	noExpiryToken, err := noExpiry.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	badSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	badSubjectToken, err := badSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	valid, err := svc.Issue(1)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	for name, token := range map[string]string{
		"empty":       "",
		"garbage":     "not-a-jwt",
		"no expiry":   noExpiryToken,
		"bad subject": badSubjectToken,
		"tampered":    tampered,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(token)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
		})
	}
}
