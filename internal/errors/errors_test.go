package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate identity", ErrDuplicateIdentity, http.StatusBadRequest, "DUPLICATE_IDENTITY"},
		{"duplicate isbn wrapped", fmt.Errorf("create book: %w", ErrDuplicateISBN), http.StatusBadRequest, "DUPLICATE_ISBN"},
		{"integrity", ErrStorageIntegrity, http.StatusBadRequest, "DUPLICATE_ENTRY"},
		{"book not found", ErrBookNotFound, http.StatusNotFound, "BOOK_NOT_FOUND"},
		{"user not found", ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"invalid token", ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"inactive user", ErrInactiveUser, http.StatusUnauthorized, "INACTIVE_USER"},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"unknown", errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.ToErrorResponse().Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(errors.New("Error 1062: Duplicate entry 'x' for key 'idx_books_isbn'"))
	assert.Equal(t, "internal server error", httpErr.Message)
}

func TestTokenErrorsAreUnauthorized(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidToken, ErrUnauthorized)
	assert.ErrorIs(t, ErrInactiveUser, ErrUnauthorized)
	assert.True(t, IsDomain(ErrInvalidToken))
	assert.False(t, IsDomain(errors.New("boom")))
}
