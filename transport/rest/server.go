package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
	"github.com/rocketscienceinc/reversi-backend/pkg/handlers"
)

type gameUseCase interface {
	RegisterPlayer(ctx context.Context, name string) (*entity.Player, string, error)
	Authenticate(token string) (string, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, playerID, gameID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID, gameID string, at reversi.Coord) (*entity.Game, error)
	LegalMoves(ctx context.Context, playerID, gameID string) ([]reversi.Coord, error)

	ExportGame(ctx context.Context, playerID, gameID string, w io.Writer) (*entity.Game, error)
	ImportGame(ctx context.Context, playerID, gameID string, r io.Reader) (*entity.Game, error)
	LeaveGame(ctx context.Context, playerID, gameID string) (*entity.Game, error)

	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type Server struct {
	logger *slog.Logger
	game   gameUseCase
	echo   *echo.Echo
	now    func() time.Time
}

func New(logger *slog.Logger, game gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "rest"),
		game:   game,
		echo:   echo.New(),
		now:    time.Now,
	}

	server.echo.HideBanner = true
	server.echo.HidePort = true

	server.routes()

	return server
}

func (that *Server) routes() {
	that.echo.GET("/ping", handlers.Ping)
	that.echo.POST("/players", that.registerPlayer)
	that.echo.GET("/leaderboard", that.leaderboard)

	games := that.echo.Group("/games", that.authenticate)
	games.POST("", that.createGame)
	games.POST("/:id/join", that.joinGame)
	games.GET("/:id", that.getGame)
	games.GET("/:id/moves", that.legalMoves)
	games.POST("/:id/turn", that.makeTurn)
	games.GET("/:id/save", that.saveGame)
	games.POST("/:id/load", that.loadGame)
	games.POST("/:id/leave", that.leaveGame)
}

// Start - starts HTTP server. It returns nil after Shutdown.
func (that *Server) Start(port string) error {
	that.echo.Server.ReadTimeout = 10 * time.Second
	that.echo.Server.WriteTimeout = 10 * time.Second
	that.echo.Server.IdleTimeout = 30 * time.Second

	if err := that.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.echo.ServeHTTP(w, r)
}
