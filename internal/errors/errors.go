package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDuplicateIdentity is returned when a username or email is already taken.
	ErrDuplicateIdentity = errors.New("username or email already registered")
	// ErrDuplicateISBN is returned when a book with the same ISBN already exists.
	ErrDuplicateISBN = errors.New("book with this ISBN already exists")
	// ErrUserNotFound is returned when no active user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrBookNotFound is returned when a book does not exist under the requesting owner.
	ErrBookNotFound = errors.New("book not found")
	// ErrForbidden is returned when a caller targets a resource owned by someone else.
	ErrForbidden = errors.New("not enough permissions")
	// ErrUnauthorized is returned when a request cannot be tied to an active user.
	ErrUnauthorized = errors.New("could not validate credentials")
	// ErrInvalidToken is returned for malformed, expired or badly signed tokens.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", ErrUnauthorized)
	// ErrInactiveUser is returned when the resolved user has been deactivated.
	ErrInactiveUser = fmt.Errorf("inactive user: %w", ErrUnauthorized)
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("incorrect username or password")
	// ErrValidation is returned when input fails schema validation.
	ErrValidation = errors.New("validation failed")
	// ErrStorageIntegrity marks a constraint violation that no pre-check detected.
	ErrStorageIntegrity = errors.New("database integrity error")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// IsDomain reports whether err is an expected outcome rather than a failure.
func IsDomain(err error) bool {
	return MapErrorToHTTP(err).StatusCode < http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become an
// opaque 500 so storage details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrDuplicateIdentity):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateIdentity.Error(), "DUPLICATE_IDENTITY")
	case errors.Is(err, ErrDuplicateISBN):
		return NewHTTPError(http.StatusBadRequest, ErrDuplicateISBN.Error(), "DUPLICATE_ISBN")
	case errors.Is(err, ErrStorageIntegrity):
		return NewHTTPError(http.StatusBadRequest, "duplicate entry found", "DUPLICATE_ENTRY")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrBookNotFound):
		return NewHTTPError(http.StatusNotFound, ErrBookNotFound.Error(), "BOOK_NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrInactiveUser):
		return NewHTTPError(http.StatusUnauthorized, "inactive user", "INACTIVE_USER")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthorized.Error(), "UNAUTHORIZED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
