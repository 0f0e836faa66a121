package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/event"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

type ExpiryPolicy string

const (
	// ExpirePass hands the move to the opponent, or back when the opponent cannot move.
	ExpirePass ExpiryPolicy = "pass"
	// ExpireRandom plays a random legal move for the player who ran out of time.
	ExpireRandom ExpiryPolicy = "random"
)

type GamePlayService interface {
	GetOrCreateGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error)
	JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)

	MakeTurn(ctx context.Context, playerID string, at reversi.Coord) (*entity.Game, error)
	LegalMoves(ctx context.Context, playerID string) ([]reversi.Coord, error)
	ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error)

	ExportGame(ctx context.Context, playerID string, w io.Writer) (*entity.Game, error)
	ImportGame(ctx context.Context, playerID string, r io.Reader) (*entity.Game, error)

	LeaveGame(ctx context.Context, playerID string) (*entity.Game, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type archiveRepo interface {
	Save(ctx context.Context, game *entity.ArchivedGame) error
	GetByID(ctx context.Context, id string) (*entity.ArchivedGame, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event event.GameEvent) error
}

type turnClock interface {
	Start(gameID string, ply int)
	Stop(gameID string)
}

type gamePlayService struct {
	logger *slog.Logger

	playerService PlayerService
	gameService   GameService
	botService    BotService

	archive   archiveRepo
	publisher eventPublisher
	clock     turnClock
	policy    ExpiryPolicy

	locker *gameLocker
	now    func() time.Time
}

func NewGamePlayService(
	logger *slog.Logger,
	playerService PlayerService,
	gameService GameService,
	botService BotService,
	archive archiveRepo,
	publisher eventPublisher,
	clock turnClock,
	policy ExpiryPolicy,
) GamePlayService {
	return &gamePlayService{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		archive:       archive,
		publisher:     publisher,
		clock:         clock,
		policy:        policy,
		locker:        newGameLocker(),
		now:           time.Now,
	}
}

func (that *gamePlayService) GetOrCreateGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	if player.GameID != "" {
		game, err := that.gameService.GetGameByID(ctx, player.GameID)
		if err == nil {
			return game, nil
		}

		if !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("failed to get game: %w", err)
		}

		// the game is gone, the player is free again
		player.Leave()
		if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}
	}

	if gameType == entity.PublicType {
		game, err := that.JoinWaitingPublicGame(ctx, player.ID)
		if err == nil {
			return game, nil
		}

		if !errors.Is(err, apperror.ErrNoActiveGames) && !errors.Is(err, apperror.ErrGameIsFull) {
			return nil, fmt.Errorf("failed to join public game: %w", err)
		}
	}

	game, err := that.createGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create new game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) JoinGameByID(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	unlock := that.locker.Lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if game.PlayerByID(player.ID) != nil {
		return game, nil
	}

	if player.GameID != "" {
		return nil, fmt.Errorf("%w: player is in game %s", apperror.ErrGameAlreadyExists, player.GameID)
	}

	if err = that.gameService.StartGame(ctx, game, player); err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	that.clock.Start(game.ID, game.Ply)
	that.publish(ctx, event.GameStarted, game)

	return game, nil
}

func (that *gamePlayService) JoinWaitingPublicGame(ctx context.Context, playerID string) (*entity.Game, error) {
	game, err := that.gameService.GetWaitingPublicGame(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get waiting public game: %w", err)
	}

	return that.JoinGameByID(ctx, game.ID, playerID)
}

// GetGame returns a live game, or the final position of an archived one.
func (that *gamePlayService) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err == nil {
		return game, nil
	}

	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	archived, err := that.archive.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get archived game: %w", err)
	}

	game, err = archived.Game()
	if err != nil {
		return nil, fmt.Errorf("failed to restore archived game: %w", err)
	}

	return game, nil
}

func (that *gamePlayService) MakeTurn(ctx context.Context, playerID string, at reversi.Coord) (*entity.Game, error) {
	unlock, game, seat, err := that.lockPlayerGame(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err = game.MakeTurn(seat.Mark, at); err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	that.publish(ctx, event.TurnMade, game)

	return that.afterPly(ctx, game)
}

func (that *gamePlayService) LegalMoves(ctx context.Context, playerID string) ([]reversi.Coord, error) {
	game, seat, err := that.playerGame(ctx, playerID)
	if err != nil {
		return nil, err
	}

	moves, err := game.MovesFor(seat.Mark)
	if err != nil {
		return nil, fmt.Errorf("failed to get legal moves: %w", err)
	}

	return moves, nil
}

// ExpireTurn applies the expiry policy to the player whose deadline passed. The deadline was
// started for the given ply; once the game has moved past it the expiry is stale and nothing changes.
func (that *gamePlayService) ExpireTurn(ctx context.Context, gameID string, ply int) (*entity.Game, error) {
	unlock := that.locker.Lock(gameID)
	defer unlock()

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if err = game.ConfirmOngoingState(); err != nil {
		return nil, err
	}

	if game.Ply != ply {
		return nil, fmt.Errorf("%w: deadline ply %d, game ply %d", apperror.ErrStaleDeadline, ply, game.Ply)
	}

	switch that.policy {
	case ExpireRandom:
		err = that.playRandom(game, game.Turn)
	default:
		err = game.ForcePass()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to expire turn: %w", err)
	}

	that.publish(ctx, event.TurnExpired, game)

	return that.afterPly(ctx, game)
}

func (that *gamePlayService) ExportGame(ctx context.Context, playerID string, w io.Writer) (*entity.Game, error) {
	game, _, err := that.playerGame(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if err = game.SaveData(w); err != nil {
		return nil, fmt.Errorf("failed to export game: %w", err)
	}

	return game, nil
}

// ImportGame replaces the position of the player's game with a saved one.
func (that *gamePlayService) ImportGame(ctx context.Context, playerID string, r io.Reader) (*entity.Game, error) {
	unlock, game, _, err := that.lockPlayerGame(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if game.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	if err = game.LoadSaveData(r); err != nil {
		return nil, fmt.Errorf("failed to import game: %w", err)
	}

	return that.afterPly(ctx, game)
}

// LeaveGame removes the player from its game. Leaving a running game forfeits it to the opponent.
func (that *gamePlayService) LeaveGame(ctx context.Context, playerID string) (*entity.Game, error) {
	unlock, game, _, err := that.lockPlayerGame(ctx, playerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if game.IsOngoing() {
		winner := entity.PlayerTie
		if opponent := game.Opponent(playerID); opponent != nil {
			winner = opponent.Mark
		}
		game.Finish(winner)

		that.finishGame(ctx, game)

		return game, nil
	}

	game.Status = entity.StatusFinished
	that.cleanupGame(ctx, game)

	return game, nil
}

func (that *gamePlayService) Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	entries, err := that.archive.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	return entries, nil
}

func (that *gamePlayService) createGame(ctx context.Context, player *entity.Player, gameType string) (*entity.Game, error) {
	game, err := that.gameService.CreateGame(ctx, player, gameType)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.playerService.UpdatePlayer(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	if game.IsWithBot() {
		if err = that.addBotToGame(ctx, game); err != nil {
			return nil, fmt.Errorf("failed to add bot to game: %w", err)
		}
	}

	return game, nil
}

func (that *gamePlayService) addBotToGame(ctx context.Context, game *entity.Game) error {
	unlock := that.locker.Lock(game.ID)
	defer unlock()

	playerMark, botMark := game.GetRandomMarks()

	botPlayer := entity.NewBotPlayer(game.ID, botMark)
	game.Players = append(game.Players, botPlayer)
	game.Status = entity.StatusOngoing

	for _, player := range game.Players {
		if !player.IsBot() {
			player.Mark = playerMark
			if err := that.playerService.UpdatePlayer(ctx, player); err != nil {
				return fmt.Errorf("failed to update player: %w", err)
			}
		}
	}

	that.publish(ctx, event.GameStarted, game)

	if err := that.botService.MakeTurn(game); err != nil {
		return fmt.Errorf("bot failed to make first turn: %w", err)
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game with bot: %w", err)
	}

	that.clock.Start(game.ID, game.Ply)

	return nil
}

// afterPly lets the bot answer, then either stores the game and restarts its clock or finishes it.
func (that *gamePlayService) afterPly(ctx context.Context, game *entity.Game) (*entity.Game, error) {
	if game.IsWithBot() && game.IsOngoing() {
		if err := that.botService.MakeTurn(game); err != nil {
			return nil, fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	if game.IsFinished() {
		that.finishGame(ctx, game)
		return game, nil
	}

	if err := that.gameService.UpdateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	if game.IsOngoing() {
		that.clock.Start(game.ID, game.Ply)
	}

	return game, nil
}

func (that *gamePlayService) finishGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "finishGame", "gameID", game.ID)

	archived, err := entity.NewArchivedGame(game, that.now())
	if err != nil {
		log.Error("failed to build archive record", "error", err)
	} else if err = that.archive.Save(ctx, archived); err != nil {
		log.Error("failed to archive game", "error", err)
	}

	that.publish(ctx, event.GameOver, game)
	that.cleanupGame(ctx, game)

	log.Info("game finished", "winner", game.Winner, "white", game.Score.White, "black", game.Score.Black)
}

func (that *gamePlayService) cleanupGame(ctx context.Context, game *entity.Game) {
	log := that.logger.With("method", "cleanupGame", "gameID", game.ID)

	that.clock.Stop(game.ID)

	if err := that.gameService.DeleteGame(ctx, game.ID); err != nil {
		log.Error("failed to delete game", "error", err)
	}

	for _, player := range game.Players {
		// bots live only inside their game
		if player.IsBot() {
			continue
		}

		detached := *player
		detached.Leave()
		if err := that.playerService.UpdatePlayer(ctx, &detached); err != nil {
			log.Error("failed to update", "player", player.ID, "error", err)
		}
	}
}

func (that *gamePlayService) playRandom(game *entity.Game, mark string) error {
	engine, err := game.Engine()
	if err != nil {
		return err
	}

	player, err := reversi.ParsePlayer(mark)
	if err != nil {
		return fmt.Errorf("failed to parse mark: %w", err)
	}

	move, ok := reversi.RandomMove(engine, player, nil)
	if !ok {
		return ErrNoAvailableMoves
	}

	return game.MakeTurn(mark, move)
}

// playerGame loads the player's current game and the player's seat in it.
func (that *gamePlayService) playerGame(ctx context.Context, playerID string) (*entity.Game, *entity.Player, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, nil, apperror.ErrNoActiveGames
	}

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	seat := game.PlayerByID(playerID)
	if seat == nil {
		return nil, nil, apperror.ErrNotInGame
	}

	return game, seat, nil
}

// lockPlayerGame is playerGame with the game lock held. The caller releases it with the returned func.
func (that *gamePlayService) lockPlayerGame(ctx context.Context, playerID string) (func(), *entity.Game, *entity.Player, error) {
	player, err := that.playerService.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	if player.GameID == "" {
		return nil, nil, nil, apperror.ErrNoActiveGames
	}

	unlock := that.locker.Lock(player.GameID)

	game, err := that.gameService.GetGameByID(ctx, player.GameID)
	if err != nil {
		unlock()
		return nil, nil, nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	seat := game.PlayerByID(playerID)
	if seat == nil {
		unlock()
		return nil, nil, nil, apperror.ErrNotInGame
	}

	return unlock, game, seat, nil
}

func (that *gamePlayService) publish(ctx context.Context, name string, game *entity.Game) {
	gameEvent := event.GameEvent{
		Event:     name,
		GameID:    game.ID,
		White:     game.Score.White,
		Black:     game.Score.Black,
		Timestamp: that.now().UTC(),
	}

	if game.IsFinished() {
		gameEvent.Winner = game.Winner
	} else {
		gameEvent.Turn = game.Turn
	}

	if err := that.publisher.Publish(ctx, gameEvent); err != nil {
		that.logger.Warn("failed to publish event", "event", name, "gameID", game.ID, "error", err)
	}
}
