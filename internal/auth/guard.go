package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/model"
)

// UserContextKey is where the middleware stores the resolved *model.User.
const UserContextKey = "user"

// UserFinder looks up active users by ID.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// Guard resolves bearer tokens to active users.
type Guard struct {
	tokens  *TokenService
	users   UserFinder
	revoked RevocationStore
}

// NewGuard creates a guard. revoked may be nil when logout revocation is disabled.
func NewGuard(tokens *TokenService, users UserFinder, revoked RevocationStore) *Guard {
	return &Guard{tokens: tokens, users: users, revoked: revoked}
}

// Resolve verifies the token and returns the active user it names.
// Invalid tokens, revoked tokens and unknown or inactive users all fail with ErrUnauthorized.
func (g *Guard) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := g.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	if g.revoked != nil && claims.ID != "" {
		revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token revoked: %w", apperrors.ErrUnauthorized)
		}
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	return g.RequireActive(user)
}

// RequireActive rejects users flagged inactive. Lookups already skip inactive
// users, so this only matters for callers holding a user from elsewhere.
func (g *Guard) RequireActive(user *model.User) (*model.User, error) {
	if user == nil || !user.Active {
		return nil, apperrors.ErrInactiveUser
	}
	return user, nil
}

// Middleware extracts the bearer token and stores the resolved user under UserContextKey.
func (g *Guard) Middleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  UserContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return g.Resolve(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			switch {
			case errors.As(err, &extractErr):
				err = apperrors.ErrUnauthorized
			case !errors.Is(err, apperrors.ErrUnauthorized):
				// Storage failure while resolving; let the error handler log it as a 500.
				return err
			}
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			httpErr := apperrors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
		},
	})
}

// CurrentUser returns the user stored by Middleware.
func CurrentUser(c echo.Context) (*model.User, error) {
	user, ok := c.Get(UserContextKey).(*model.User)
	if !ok || user == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// BearerToken returns the raw token from the Authorization header, if any.
func BearerToken(c echo.Context) string {
	const prefix = "Bearer "
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
