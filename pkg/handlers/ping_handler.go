package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Ping - liveness check.
func Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}
