package service

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

var (
	ErrBotNotFound      = errors.New("bot player not found")
	ErrNoAvailableMoves = errors.New("no available moves")
)

type BotService interface {
	MakeTurn(game *entity.Game) error
}

type botService struct {
	rnd *rand.Rand
}

// NewBotService returns a bot playing uniformly random legal moves. A nil rnd uses the global source.
func NewBotService(rnd *rand.Rand) BotService {
	return &botService{rnd: rnd}
}

// MakeTurn plays the bot's move and keeps playing while the pass rule hands the move back to it.
func (that *botService) MakeTurn(game *entity.Game) error {
	botPlayer := findBot(game)
	if botPlayer == nil {
		return ErrBotNotFound
	}

	mark, err := reversi.ParsePlayer(botPlayer.Mark)
	if err != nil {
		return fmt.Errorf("failed to parse bot mark: %w", err)
	}

	for game.IsOngoing() && game.Turn == botPlayer.Mark {
		engine, err := game.Engine()
		if err != nil {
			return err
		}

		move, ok := reversi.RandomMove(engine, mark, that.rnd)
		if !ok {
			return ErrNoAvailableMoves
		}

		if err = game.MakeTurn(botPlayer.Mark, move); err != nil {
			return fmt.Errorf("bot failed to make turn: %w", err)
		}
	}

	return nil
}

func findBot(game *entity.Game) *entity.Player {
	for _, player := range game.Players {
		if player.IsBot() {
			return player
		}
	}

	return nil
}
