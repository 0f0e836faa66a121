package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

type gameUseCase interface {
	Authenticate(token string) (string, error)
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	GetOrCreateGame(ctx context.Context, playerID, gameType string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByPlayerID(ctx context.Context, playerID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID, gameID string, at reversi.Coord) (*entity.Game, error)
	LegalMoves(ctx context.Context, playerID, gameID string) ([]reversi.Coord, error)
	LeaveGame(ctx context.Context, playerID, gameID string) (*entity.Game, error)
}

type handlerFunc func(ctx context.Context, c *client, payload Payload) error

type Server struct {
	logger   *slog.Logger
	game     gameUseCase
	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*client

	handlers map[string]handlerFunc
	srv      *http.Server
}

func New(logger *slog.Logger, game gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		game:   game,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		connections: make(map[string]*client),
		handlers:    make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers[actionGameNew] = server.handleNewGame
	server.handlers[actionGameJoin] = server.handleJoinGame
	server.handlers[actionGameTurn] = server.handleGameTurn
	server.handlers[actionGameMoves] = server.handleGameMoves
	server.handlers[actionGameLeave] = server.handleGameLeave

	return server
}

// Start - starts WebSocket server. It returns nil after Shutdown.
func (that *Server) Start(port string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", that)

	that.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and closes the open ones.
func (that *Server) Shutdown(ctx context.Context) error {
	that.connectionsMutex.Lock()
	for _, c := range that.connections {
		c.conn.Close()
	}
	that.connectionsMutex.Unlock()

	if that.srv == nil {
		return nil
	}

	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// ServeHTTP - upgrades the connection to WebSocket and processes its messages until it closes.
func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := newClient(conn)

	defer func() {
		that.handleDisconnect(c)
		conn.Close()
	}()

	log.Info("WebSocket connection established")

	if err = that.handleMessages(r.Context(), c); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			if err = c.sendError(actionError, "malformed message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			if err = c.sendError(actionError, fmt.Sprintf("unknown action %q", message.Action)); err != nil {
				return err
			}
			continue
		}

		var payload Payload
		if len(message.Payload) > 0 {
			if err = json.Unmarshal(message.Payload, &payload); err != nil {
				if err = c.sendError(message.Action, "malformed payload"); err != nil {
					return err
				}
				continue
			}
		}

		if err = handler(ctx, c, payload); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) handleDisconnect(c *client) {
	if c.playerID == "" {
		return
	}

	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	if current, ok := that.connections[c.playerID]; ok && current == c {
		delete(that.connections, c.playerID)
		that.logger.Info("player disconnected", "playerID", c.playerID)
	}
}

// NotifyGame pushes the game state to its connected players, e.g. after the turn clock expired.
func (that *Server) NotifyGame(game *entity.Game) {
	that.broadcast(actionGameExpired, game)
}

func (that *Server) register(c *client, playerID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	c.playerID = playerID
	that.connections[playerID] = c
}

func (that *Server) connection(playerID string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	c, ok := that.connections[playerID]
	return c, ok
}

func (that *Server) broadcast(action string, game *entity.Game) {
	log := that.logger.With("method", "broadcast", "action", action, "gameID", game.ID)

	masked := maskGameDetails(game)

	for _, player := range game.Players {
		if player.IsBot() {
			continue
		}

		c, ok := that.connection(player.ID)
		if !ok {
			log.Debug("connection not found", "playerID", player.ID)
			continue
		}

		if err := c.send(action, Payload{Player: player, Game: masked}); err != nil {
			log.Error("failed to send game update", "playerID", player.ID, "error", err)
		}
	}
}
