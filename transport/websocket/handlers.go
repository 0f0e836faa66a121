package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

var errNotConnected = errors.New("send connect first")

// handleConnect binds the connection to a player: the one named by the token, the one named by
// player.id, or a new one.
func (that *Server) handleConnect(ctx context.Context, c *client, payload Payload) error {
	log := that.logger.With("method", "handleConnect")

	playerID := ""
	if payload.Player != nil {
		playerID = payload.Player.ID
	}

	if payload.Token != "" {
		authenticated, err := that.game.Authenticate(payload.Token)
		if err != nil {
			return that.reply(c, actionConnect, err)
		}
		playerID = authenticated
	}

	player, err := that.game.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to create or get", "player", playerID, "error", err)
		return c.sendError(actionConnect, "failed to connect player")
	}

	that.register(c, player.ID)

	response := Payload{Player: player}

	if player.GameID != "" {
		game, err := that.game.GetGameByPlayerID(ctx, player.ID)
		if err != nil {
			log.Warn("failed to get the game", "gameID", player.GameID, "error", err)
		} else {
			response.Game = maskGameDetails(game)
		}
	}

	if err = c.send(actionConnect, response); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return nil
}

func (that *Server) handleNewGame(ctx context.Context, c *client, payload Payload) error {
	if c.playerID == "" {
		return that.reply(c, actionGameNew, errNotConnected)
	}

	gameType := entity.PrivateType
	if payload.Game != nil && payload.Game.Type != "" {
		gameType = payload.Game.Type
	}

	game, err := that.game.GetOrCreateGame(ctx, c.playerID, gameType)
	if err != nil {
		return that.reply(c, actionGameNew, err)
	}

	that.broadcast(actionGameNew, game)

	return nil
}

func (that *Server) handleJoinGame(ctx context.Context, c *client, payload Payload) error {
	if c.playerID == "" {
		return that.reply(c, actionGameJoin, errNotConnected)
	}

	if payload.Game == nil || payload.Game.ID == "" {
		return c.sendError(actionGameJoin, "game id is required")
	}

	game, err := that.game.JoinGame(ctx, payload.Game.ID, c.playerID)
	if err != nil {
		return that.reply(c, actionGameJoin, err)
	}

	that.broadcast(actionGameJoin, game)

	return nil
}

func (that *Server) handleGameTurn(ctx context.Context, c *client, payload Payload) error {
	if c.playerID == "" {
		return that.reply(c, actionGameTurn, errNotConnected)
	}

	if payload.Cell == nil {
		return c.sendError(actionGameTurn, "cell is required")
	}

	gameID, err := that.currentGameID(ctx, c, payload)
	if err != nil {
		return that.reply(c, actionGameTurn, err)
	}

	game, err := that.game.MakeTurn(ctx, c.playerID, gameID, *payload.Cell)
	if errors.Is(err, apperror.ErrGameFinished) && game != nil {
		that.broadcast(actionGameTurn, game)
		that.logger.Info("game finished", "gameID", game.ID, "winner", game.Winner)
		return nil
	}
	if err != nil {
		return that.reply(c, actionGameTurn, err)
	}

	that.broadcast(actionGameTurn, game)

	return nil
}

func (that *Server) handleGameMoves(ctx context.Context, c *client, payload Payload) error {
	if c.playerID == "" {
		return that.reply(c, actionGameMoves, errNotConnected)
	}

	gameID, err := that.currentGameID(ctx, c, payload)
	if err != nil {
		return that.reply(c, actionGameMoves, err)
	}

	moves, err := that.game.LegalMoves(ctx, c.playerID, gameID)
	if err != nil {
		return that.reply(c, actionGameMoves, err)
	}

	return c.send(actionGameMoves, Payload{Moves: moves})
}

func (that *Server) handleGameLeave(ctx context.Context, c *client, payload Payload) error {
	if c.playerID == "" {
		return that.reply(c, actionGameLeave, errNotConnected)
	}

	gameID, err := that.currentGameID(ctx, c, payload)
	if err != nil {
		return that.reply(c, actionGameLeave, err)
	}

	game, err := that.game.LeaveGame(ctx, c.playerID, gameID)
	if err != nil {
		return that.reply(c, actionGameLeave, err)
	}

	that.broadcast(actionGameLeave, game)

	return nil
}

// currentGameID takes the game id from the payload, or the player's current game when it is omitted.
func (that *Server) currentGameID(ctx context.Context, c *client, payload Payload) (string, error) {
	if payload.Game != nil && payload.Game.ID != "" {
		return payload.Game.ID, nil
	}

	game, err := that.game.GetGameByPlayerID(ctx, c.playerID)
	if err != nil {
		return "", err
	}

	return game.ID, nil
}

// reply reports a failed action to the client. Rule violations are shown as is, anything else is logged.
func (that *Server) reply(c *client, action string, err error) error {
	message := err.Error()

	if !isClientError(err) {
		that.logger.Error("action failed", "action", action, "playerID", c.playerID, "error", err)
		message = "internal error"
	}

	if sendErr := c.sendError(action, message); sendErr != nil {
		return fmt.Errorf("failed to send error response: %w", sendErr)
	}

	return nil
}

func isClientError(err error) bool {
	for _, target := range []error{
		errNotConnected,
		apperror.ErrUnauthorized,
		apperror.ErrNotFound,
		apperror.ErrNotInGame,
		apperror.ErrNoActiveGames,
		apperror.ErrIllegalMove,
		apperror.ErrNotYourTurn,
		apperror.ErrGameIsNotStarted,
		apperror.ErrGameFinished,
		apperror.ErrGameIsFull,
		apperror.ErrGameAlreadyExists,
		entity.ErrUnknownGameType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
