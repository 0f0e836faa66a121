package rest

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
)

const playerIDKey = "playerID"

// authenticate - resolves the bearer token to the player id stored in the request context.
func (that *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return that.fail(c, apperror.ErrUnauthorized)
		}

		playerID, err := that.game.Authenticate(token)
		if err != nil {
			return that.fail(c, err)
		}

		c.Set(playerIDKey, playerID)

		return next(c)
	}
}

func playerID(c echo.Context) string {
	id, _ := c.Get(playerIDKey).(string)
	return id
}
