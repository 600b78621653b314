package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Root points visitors at the API docs.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Welcome to the Bookshelf API",
		"docs":    "/swagger/index.html",
	})
}

// Health reports liveness.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
