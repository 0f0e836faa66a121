package rest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/pkg"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

// maxSaveSize bounds uploaded save data; a full save is well under 1 KiB.
const maxSaveSize = 16 << 10

type registerRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	Player *entity.Player `json:"player"`
	Token  string         `json:"token"`
}

type createGameRequest struct {
	Type string `json:"type"`
}

type turnRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type movesResponse struct {
	Moves []reversi.Coord `json:"moves"`
}

type leaderboardResponse struct {
	Entries []entity.LeaderboardEntry `json:"entries"`
}

func (that *Server) registerPlayer(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
	}

	player, token, err := that.game.RegisterPlayer(c.Request().Context(), req.Name)
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{Player: player, Token: token})
}

func (that *Server) leaderboard(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return that.fail(c, fmt.Errorf("%w: limit %q", errBadRequest, raw))
		}
		limit = parsed
	}

	entries, err := that.game.Leaderboard(c.Request().Context(), limit)
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, leaderboardResponse{Entries: entries})
}

func (that *Server) createGame(c echo.Context) error {
	var req createGameRequest
	if err := c.Bind(&req); err != nil {
		return that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
	}

	if req.Type == "" {
		req.Type = entity.PrivateType
	}

	game, err := that.game.GetOrCreateGame(c.Request().Context(), playerID(c), req.Type)
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusCreated, game)
}

func (that *Server) joinGame(c echo.Context) error {
	game, err := that.game.JoinGame(c.Request().Context(), c.Param("id"), playerID(c))
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, game)
}

func (that *Server) getGame(c echo.Context) error {
	game, err := that.game.GetGame(c.Request().Context(), playerID(c), c.Param("id"))
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, game)
}

func (that *Server) legalMoves(c echo.Context) error {
	moves, err := that.game.LegalMoves(c.Request().Context(), playerID(c), c.Param("id"))
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, movesResponse{Moves: moves})
}

func (that *Server) makeTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return that.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
	}

	if req.Row == nil || req.Col == nil {
		return that.fail(c, fmt.Errorf("%w: row and col are required", errBadRequest))
	}

	at := reversi.Coord{Row: *req.Row, Col: *req.Col}

	game, err := that.game.MakeTurn(c.Request().Context(), playerID(c), c.Param("id"), at)
	if errors.Is(err, apperror.ErrGameFinished) && game != nil {
		return c.JSON(http.StatusOK, game)
	}
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, game)
}

func (that *Server) saveGame(c echo.Context) error {
	var buf bytes.Buffer
	if _, err := that.game.ExportGame(c.Request().Context(), playerID(c), c.Param("id"), &buf); err != nil {
		return that.fail(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", pkg.SaveFileName(that.now())))

	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}

func (that *Server) loadGame(c echo.Context) error {
	body := io.LimitReader(c.Request().Body, maxSaveSize)

	game, err := that.game.ImportGame(c.Request().Context(), playerID(c), c.Param("id"), body)
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, game)
}

func (that *Server) leaveGame(c echo.Context) error {
	game, err := that.game.LeaveGame(c.Request().Context(), playerID(c), c.Param("id"))
	if err != nil {
		return that.fail(c, err)
	}

	return c.JSON(http.StatusOK, game)
}
