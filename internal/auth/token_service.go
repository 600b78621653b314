package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	apperrors "bookshelf/internal/errors"
)

const (
	// DefaultAlgorithm is used when TokenConfig.Algorithm is empty.
	DefaultAlgorithm = "HS256"
	// DefaultTokenTTL is the lifetime of an access token when TokenConfig.TTL is zero.
	DefaultTokenTTL = 24 * time.Hour
)

// TokenConfig is the process-wide signing configuration, built once at startup.
type TokenConfig struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
}

// Claims represents JWT claims. The subject carries the user ID in decimal.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("subject %q is not a user id", c.Subject)
	}
	return uint(id), nil
}

// TokenService handles JWT token generation and validation.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. Only HMAC algorithms are accepted.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	if ttl < 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenService{
		secret: append([]byte(nil), cfg.Secret...),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue generates a new access token for the user.
func (s *TokenService) Issue(userID uint) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Every failure is ErrInvalidToken.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	// jwt/v4 treats exp as optional; tokens without one never expire, so reject them.
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", apperrors.ErrInvalidToken)
	}
	return claims, nil
}

// Verify returns the user ID asserted by a valid token.
func (s *TokenService) Verify(tokenString string) (uint, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return 0, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	return userID, nil
}
