package router

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookshelf/internal/auth"
	"bookshelf/internal/config"
	apperrors "bookshelf/internal/errors"
	"bookshelf/internal/handler"
	"bookshelf/internal/logger"
	"bookshelf/internal/metrics"
)

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth  *handler.AuthHandler
	Users *handler.UserHandler
	Books *handler.BookHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	h Handlers,
	guard *auth.Guard,
	m *metrics.Metrics,
	log *slog.Logger,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(m.Middleware())

	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/users", h.Auth.Register)
	api.POST("/auth/token", h.Auth.Login)

	secured := api.Group("", guard.Middleware())

	secured.POST("/auth/logout", h.Auth.Logout)

	secured.GET("/users/me", h.Users.Me)
	secured.GET("/users/:id", h.Users.GetUser)
	secured.PUT("/users/:id", h.Users.UpdateUser)

	secured.GET("/books", h.Books.ListBooks)
	secured.POST("/books", h.Books.CreateBook)
	secured.GET("/books/search", h.Books.SearchBooks)
	secured.GET("/books/:id", h.Books.GetBook)
	secured.PUT("/books/:id", h.Books.UpdateBook)
	secured.DELETE("/books/:id", h.Books.DeleteBook)
}

// ErrorHandler writes every error as an ErrorResponse and logs server-side failures.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   apperrors.ErrorResponse
			cause  = err
		)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if he.Internal != nil {
				cause = he.Internal
			}
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Error: msg, Code: statusCode(status)}
			default:
				body = apperrors.ErrorResponse{Error: http.StatusText(status), Code: statusCode(status)}
			}
		} else {
			httpErr := apperrors.MapErrorToHTTP(err)
			status = httpErr.StatusCode
			body = httpErr.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			log.ErrorContext(c.Request().Context(), "request failed",
				slog.String("req_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				slog.String("path", c.Path()),
				slog.Any("error", cause),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("write error response", slog.Any("error", err))
		}
	}
}

// statusCode turns "Method Not Allowed" into "METHOD_NOT_ALLOWED".
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator with the domain-specific tags registered.
func NewValidator() *CustomValidator {
	v := validator.New()
	// Publication years may not lie in the future.
	_ = v.RegisterValidation("notfutureyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year())
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
