package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/config"
	"github.com/rocketscienceinc/reversi-backend/internal/event"
	"github.com/rocketscienceinc/reversi-backend/internal/repository"
	"github.com/rocketscienceinc/reversi-backend/internal/repository/storage"
	"github.com/rocketscienceinc/reversi-backend/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/reversi-backend/internal/service"
	"github.com/rocketscienceinc/reversi-backend/internal/usecase"
	"github.com/rocketscienceinc/reversi-backend/transport/rest"
	"github.com/rocketscienceinc/reversi-backend/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

type publisher interface {
	Publish(ctx context.Context, event event.GameEvent) error
	Close() error
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close sqlite storage", "error", err)
		}
	}()

	if err = sqliteStorage.Init(ctx); err != nil {
		return fmt.Errorf("could not init sqlite storage: %w", err)
	}

	events, err := newPublisher(logger, conf.Kafka)
	if err != nil {
		return fmt.Errorf("could not create event producer: %w", err)
	}

	defer func() {
		if err = events.Close(); err != nil {
			log.Error("could not close event producer", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage, conf.Redis.PlayerTTL)
	gameRepo := repository.NewGameRepository(redisStorage)
	archiveRepo := repository.NewArchiveRepository(sqliteStorage.Connection)

	clock := service.NewTurnClock(logger, conf.TurnClock.TurnTimeout())

	playerService := service.NewPlayerService(playerRepo)
	gameService := service.NewGameService(gameRepo)
	botService := service.NewBotService(nil)
	authService := service.NewAuthService(conf.JWT.SecretKey, conf.JWT.TTL)
	gamePlayService := service.NewGamePlayService(
		logger,
		playerService,
		gameService,
		botService,
		archiveRepo,
		events,
		clock,
		service.ExpiryPolicy(conf.TurnClock.Policy),
	)

	gameUseCase := usecase.NewGameUseCase(playerService, authService, gamePlayService)

	httpServer := rest.New(logger, gameUseCase)
	wsServer := websocket.New(logger, gameUseCase)

	clock.OnExpire(func(gameID string, ply int) {
		game, expireErr := gameUseCase.ExpireTurn(ctx, gameID, ply)
		if errors.Is(expireErr, apperror.ErrStaleDeadline) {
			log.Debug("stale turn deadline", "gameID", gameID, "ply", ply)
			return
		}
		if expireErr != nil {
			log.Warn("failed to expire turn", "gameID", gameID, "error", expireErr)
			return
		}

		wsServer.NotifyGame(game)
	})

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := httpServer.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err = httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown HTTP server", "error", err)
	}

	if err = wsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown WebSocket server", "error", err)
	}

	return nil
}

// newPublisher returns the Kafka producer, or a no-op publisher when no brokers are configured.
func newPublisher(logger *slog.Logger, conf config.Kafka) (publisher, error) {
	if len(conf.Brokers) == 0 {
		logger.Info("kafka brokers are not configured, game events are dropped")
		return event.NopPublisher{}, nil
	}

	producer, err := event.NewProducer(logger, conf.Brokers, conf.Topic)
	if err != nil {
		return nil, err
	}

	return producer, nil
}
