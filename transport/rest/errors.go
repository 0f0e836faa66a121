package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrNotInGame):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, entity.ErrUnknownGameType):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrIllegalMove), errors.Is(err, apperror.ErrMalformedSave):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameIsNotStarted),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsFull),
		errors.Is(err, apperror.ErrGameAlreadyExists),
		errors.Is(err, apperror.ErrNoActiveGames):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail - writes the error response. Server-side failures are logged and hidden from the client.
func (that *Server) fail(c echo.Context, err error) error {
	status := statusFor(err)

	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(status, errorResponse{Error: http.StatusText(status)})
	}

	return c.JSON(status, errorResponse{Error: err.Error()})
}
