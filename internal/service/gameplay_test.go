package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
	"github.com/rocketscienceinc/reversi-backend/internal/event"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

type gamePlayFixture struct {
	service       GamePlayService
	playerService PlayerService
	players       *memoryPlayers
	games         *memoryGames
	archive       *memoryArchive
	publisher     *recordingPublisher
	clock         *countingClock
}

func newGamePlayFixture(t *testing.T, policy ExpiryPolicy) *gamePlayFixture {
	t.Helper()

	f := &gamePlayFixture{
		players:       newMemoryPlayers(),
		games:         newMemoryGames(),
		archive:       newMemoryArchive(),
		publisher:     &recordingPublisher{},
		clock:         newCountingClock(),
	}

	f.playerService = NewPlayerService(f.players)
	f.service = NewGamePlayService(
		newTestLogger(),
		f.playerService,
		NewGameService(f.games),
		NewBotService(nil),
		f.archive,
		f.publisher,
		f.clock,
		policy,
	)

	return f
}

func (f *gamePlayFixture) newPlayer(t *testing.T, name string) *entity.Player {
	t.Helper()

	player, err := f.playerService.CreatePlayer(context.Background(), name)
	require.NoError(t, err)

	return player
}

func (f *gamePlayFixture) reload(t *testing.T, playerID string) *entity.Player {
	t.Helper()

	player, err := f.playerService.GetPlayerByID(context.Background(), playerID)
	require.NoError(t, err)

	return player
}

// startPrivateGame seats white as the creator and black as the joiner.
func (f *gamePlayFixture) startPrivateGame(t *testing.T) (*entity.Game, *entity.Player, *entity.Player) {
	t.Helper()

	ctx := context.Background()
	white := f.newPlayer(t, "white")
	black := f.newPlayer(t, "black")

	game, err := f.service.GetOrCreateGame(ctx, white, entity.PrivateType)
	require.NoError(t, err)

	game, err = f.service.JoinGameByID(ctx, game.ID, black.ID)
	require.NoError(t, err)

	return game, white, black
}

func saveText(t *testing.T, discs map[reversi.Coord]reversi.Player, turn reversi.Player) string {
	t.Helper()

	grid := reversi.EmptyGrid()
	for at, player := range discs {
		require.NoError(t, grid.Set(at, reversi.OwnedBy(player)))
	}

	var buf bytes.Buffer
	require.NoError(t, reversi.EncodeSave(&buf, grid, turn))

	return buf.String()
}

func TestGamePlayService_CreateAndJoin(t *testing.T) {
	t.Run("Private game starts when the second player joins", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)

		// When: one player creates a game and another joins it
		game, white, black := f.startPrivateGame(t)

		// Then: the creator plays white, the joiner black, and the clock runs
		assert.Equal(t, entity.StatusOngoing, game.Status)
		assert.Equal(t, entity.PlayerWhite, game.Turn)
		assert.Equal(t, entity.PlayerWhite, f.reload(t, white.ID).Mark)
		assert.Equal(t, entity.PlayerBlack, f.reload(t, black.ID).Mark)
		assert.Equal(t, game.ID, f.reload(t, black.ID).GameID)
		assert.True(t, f.clock.isRunning(game.ID))
		assert.Equal(t, []string{event.GameStarted}, f.publisher.names())
	})

	t.Run("Creator gets the same waiting game back", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		ctx := context.Background()
		player := f.newPlayer(t, "alice")

		first, err := f.service.GetOrCreateGame(ctx, player, entity.PrivateType)
		require.NoError(t, err)

		second, err := f.service.GetOrCreateGame(ctx, f.reload(t, player.ID), entity.PrivateType)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, entity.StatusWaiting, second.Status)
		assert.False(t, f.clock.isRunning(first.ID))
	})

	t.Run("Full game rejects a third player", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, _, _ := f.startPrivateGame(t)
		third := f.newPlayer(t, "third")

		_, err := f.service.JoinGameByID(context.Background(), game.ID, third.ID)

		assert.ErrorIs(t, err, apperror.ErrGameIsFull)
	})

	t.Run("Public games are matched", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		ctx := context.Background()
		first := f.newPlayer(t, "first")
		second := f.newPlayer(t, "second")

		// Given: a waiting public game
		waiting, err := f.service.GetOrCreateGame(ctx, first, entity.PublicType)
		require.NoError(t, err)
		require.True(t, waiting.IsWaiting())

		// When: another player asks for a public game
		game, err := f.service.GetOrCreateGame(ctx, second, entity.PublicType)

		// Then: both play in the same game
		require.NoError(t, err)
		assert.Equal(t, waiting.ID, game.ID)
		assert.True(t, game.IsOngoing())
		assert.Len(t, game.Players, 2)
	})

	t.Run("Stale game reference is dropped", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		ctx := context.Background()
		player := f.newPlayer(t, "alice")
		player.GameID = "gone"
		require.NoError(t, f.playerService.UpdatePlayer(ctx, player))

		game, err := f.service.GetOrCreateGame(ctx, player, entity.PrivateType)

		require.NoError(t, err)
		assert.NotEqual(t, "gone", game.ID)
		assert.Equal(t, game.ID, f.reload(t, player.ID).GameID)
	})
}

func TestGamePlayService_MakeTurn(t *testing.T) {
	t.Run("Legal move is stored and the clock restarts", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, white, _ := f.startPrivateGame(t)

		// When: white plays (2,4)
		updated, err := f.service.MakeTurn(context.Background(), white.ID, reversi.Coord{Row: 2, Col: 4})

		// Then: black is to move in the stored game
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, updated.Turn)
		assert.Equal(t, []reversi.Coord{{Row: 3, Col: 4}}, updated.LastFlips)

		stored, err := f.games.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, updated.Board, stored.Board)
		assert.Equal(t, 2, f.clock.starts(game.ID))
		assert.Equal(t, []string{event.GameStarted, event.TurnMade}, f.publisher.names())
	})

	t.Run("Move out of turn is rejected", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, _, black := f.startPrivateGame(t)

		_, err := f.service.MakeTurn(context.Background(), black.ID, reversi.Coord{Row: 2, Col: 3})

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		stored, err := f.games.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, reversi.NewGrid(), stored.Board)
	})

	t.Run("Illegal cell is rejected", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		_, white, _ := f.startPrivateGame(t)

		_, err := f.service.MakeTurn(context.Background(), white.ID, reversi.Coord{Row: 0, Col: 0})

		assert.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("Player without a game", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		player := f.newPlayer(t, "alone")

		_, err := f.service.MakeTurn(context.Background(), player.ID, reversi.Coord{Row: 2, Col: 4})

		assert.ErrorIs(t, err, apperror.ErrNoActiveGames)
	})

	t.Run("Waiting game cannot be played", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		player := f.newPlayer(t, "alone")
		_, err := f.service.GetOrCreateGame(context.Background(), player, entity.PrivateType)
		require.NoError(t, err)

		_, err = f.service.MakeTurn(context.Background(), player.ID, reversi.Coord{Row: 2, Col: 4})

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Concurrent submissions of one move apply once", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		_, white, _ := f.startPrivateGame(t)

		var wg sync.WaitGroup
		errs := make([]error, 4)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.service.MakeTurn(context.Background(), white.ID, reversi.Coord{Row: 2, Col: 4})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestGamePlayService_Finish(t *testing.T) {
	// Given: a position where white's next capture ends the game
	f := newGamePlayFixture(t, ExpirePass)
	ctx := context.Background()
	game, white, black := f.startPrivateGame(t)

	_, err := f.service.ImportGame(ctx, white.ID, strings.NewReader(saveText(t, map[reversi.Coord]reversi.Player{
		{Row: 0, Col: 1}: reversi.Black,
		{Row: 0, Col: 2}: reversi.White,
	}, reversi.White)))
	require.NoError(t, err)

	// When: white captures the last black disc
	finished, err := f.service.MakeTurn(ctx, white.ID, reversi.Coord{Row: 0, Col: 0})

	// Then: the game is over, archived and removed from the session store
	require.NoError(t, err)
	assert.True(t, finished.IsFinished())
	assert.Equal(t, entity.PlayerWhite, finished.Winner)
	assert.Equal(t, entity.Score{White: 3, Black: 0}, finished.Score)

	archived, err := f.archive.GetByID(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PlayerWhite, archived.Winner)
	assert.Equal(t, white.ID, archived.WhiteID)
	assert.Equal(t, black.ID, archived.BlackID)

	assert.False(t, f.games.has(game.ID))
	assert.False(t, f.clock.isRunning(game.ID))
	assert.Empty(t, f.reload(t, white.ID).GameID)
	assert.Empty(t, f.reload(t, black.ID).GameID)

	gameOver := f.publisher.last()
	assert.Equal(t, event.GameOver, gameOver.Event)
	assert.Equal(t, entity.PlayerWhite, gameOver.Winner)

	// And: the final position is still readable from the archive
	restored, err := f.service.GetGame(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, finished.Board, restored.Board)
	assert.True(t, restored.IsFinished())
}

func TestGamePlayService_ExpireTurn(t *testing.T) {
	t.Run("Pass policy hands the move over", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, _, _ := f.startPrivateGame(t)

		// When: white's clock runs out
		expired, err := f.service.ExpireTurn(context.Background(), game.ID, game.Ply)

		// Then: black moves next on an unchanged board
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, expired.Turn)
		assert.Equal(t, reversi.NewGrid(), expired.Board)
		assert.Equal(t, event.TurnExpired, f.publisher.last().Event)
		assert.Equal(t, 2, f.clock.starts(game.ID))
		assert.Equal(t, expired.Ply, f.clock.ply(game.ID))
	})

	t.Run("Random policy plays for the absent player", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpireRandom)
		game, _, _ := f.startPrivateGame(t)

		expired, err := f.service.ExpireTurn(context.Background(), game.ID, game.Ply)

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, expired.Turn)
		assert.Equal(t, 5, expired.Score.White+expired.Score.Black)
		assert.Equal(t, 4, expired.Score.White)
		assert.Len(t, expired.LastFlips, 1)
	})

	t.Run("Waiting game does not expire", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		player := f.newPlayer(t, "alone")
		game, err := f.service.GetOrCreateGame(context.Background(), player, entity.PrivateType)
		require.NoError(t, err)

		_, err = f.service.ExpireTurn(context.Background(), game.ID, game.Ply)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Deadline of a ply already played is ignored", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		ctx := context.Background()
		game, white, _ := f.startPrivateGame(t)
		deadlinePly := f.clock.ply(game.ID)

		// Given: white's move lands while white's deadline is firing
		moved, err := f.service.MakeTurn(ctx, white.ID, reversi.Coord{Row: 2, Col: 4})
		require.NoError(t, err)

		// When: the expiry for white's deadline gets the game afterwards
		_, err = f.service.ExpireTurn(ctx, game.ID, deadlinePly)

		// Then: black keeps the move and the position is untouched
		require.ErrorIs(t, err, apperror.ErrStaleDeadline)

		stored, err := f.games.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, stored.Turn)
		assert.Equal(t, moved.Board, stored.Board)
		assert.Equal(t, moved.Ply, stored.Ply)
		assert.Equal(t, moved.Ply, f.clock.ply(game.ID))
		assert.Equal(t, []string{event.GameStarted, event.TurnMade}, f.publisher.names())
	})

	t.Run("Random policy ignores a stale deadline too", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpireRandom)
		ctx := context.Background()
		game, white, _ := f.startPrivateGame(t)

		_, err := f.service.MakeTurn(ctx, white.ID, reversi.Coord{Row: 2, Col: 4})
		require.NoError(t, err)

		_, err = f.service.ExpireTurn(ctx, game.ID, game.Ply)

		require.ErrorIs(t, err, apperror.ErrStaleDeadline)
		stored, err := f.games.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Score{White: 4, Black: 1}, stored.Score)
		assert.Equal(t, entity.PlayerBlack, stored.Turn)
	})
}

func TestGamePlayService_BotGame(t *testing.T) {
	f := newGamePlayFixture(t, ExpirePass)
	ctx := context.Background()
	human := f.newPlayer(t, "human")

	// When: a game against the bot is created
	game, err := f.service.GetOrCreateGame(ctx, human, entity.WithBotType)
	require.NoError(t, err)

	// Then: it starts at once and the human holds the move
	mark := f.reload(t, human.ID).Mark
	require.NotEmpty(t, mark)
	assert.True(t, game.IsOngoing())
	assert.Len(t, game.Players, 2)
	assert.Equal(t, mark, game.Turn)

	// And: the bot is kept only inside the game
	botID := entity.NewBotPlayer(game.ID, "").ID
	_, err = f.players.GetByID(ctx, botID)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	// And: the bot answers every human move
	for plies := 0; game.IsOngoing(); plies++ {
		require.Less(t, plies, reversi.Size*reversi.Size)
		require.Equal(t, mark, game.Turn)

		game, err = f.service.MakeTurn(ctx, human.ID, game.LegalMoves[0])
		require.NoError(t, err)
	}

	assert.True(t, game.IsFinished())
	_, err = f.archive.GetByID(ctx, game.ID)
	assert.NoError(t, err)

	// And: finishing leaves no bot record behind
	_, err = f.players.GetByID(ctx, botID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Empty(t, f.reload(t, human.ID).GameID)
}

func TestGamePlayService_LegalMoves(t *testing.T) {
	f := newGamePlayFixture(t, ExpirePass)
	_, white, black := f.startPrivateGame(t)

	whiteMoves, err := f.service.LegalMoves(context.Background(), white.ID)
	require.NoError(t, err)
	assert.Equal(t, []reversi.Coord{{Row: 2, Col: 4}, {Row: 3, Col: 5}, {Row: 4, Col: 2}, {Row: 5, Col: 3}}, whiteMoves)

	blackMoves, err := f.service.LegalMoves(context.Background(), black.ID)
	require.NoError(t, err)
	assert.Equal(t, []reversi.Coord{{Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 4, Col: 5}, {Row: 5, Col: 4}}, blackMoves)
}

func TestGamePlayService_ExportImport(t *testing.T) {
	t.Run("Export writes the save format", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		_, white, black := f.startPrivateGame(t)
		_, err := f.service.MakeTurn(context.Background(), white.ID, reversi.Coord{Row: 2, Col: 4})
		require.NoError(t, err)

		var buf bytes.Buffer
		game, err := f.service.ExportGame(context.Background(), black.ID, &buf)

		require.NoError(t, err)
		var expected bytes.Buffer
		require.NoError(t, reversi.EncodeSave(&expected, game.Board, reversi.Black))
		assert.Equal(t, expected.String(), buf.String())
	})

	t.Run("Malformed import leaves the game untouched", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, white, _ := f.startPrivateGame(t)

		_, err := f.service.ImportGame(context.Background(), white.ID, strings.NewReader("1,1,1\n"))

		require.ErrorIs(t, err, apperror.ErrMalformedSave)

		stored, err := f.games.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, reversi.NewGrid(), stored.Board)
	})
}

func TestGamePlayService_LeaveGame(t *testing.T) {
	t.Run("Leaving a running game forfeits it", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		game, white, black := f.startPrivateGame(t)

		left, err := f.service.LeaveGame(context.Background(), white.ID)

		require.NoError(t, err)
		assert.True(t, left.IsFinished())
		assert.Equal(t, entity.PlayerBlack, left.Winner)

		archived, err := f.archive.GetByID(context.Background(), game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerBlack, archived.Winner)
		assert.Empty(t, f.reload(t, black.ID).GameID)
	})

	t.Run("Leaving a waiting game drops it", func(t *testing.T) {
		f := newGamePlayFixture(t, ExpirePass)
		player := f.newPlayer(t, "alone")
		game, err := f.service.GetOrCreateGame(context.Background(), player, entity.PublicType)
		require.NoError(t, err)

		_, err = f.service.LeaveGame(context.Background(), player.ID)

		require.NoError(t, err)
		assert.False(t, f.games.has(game.ID))
		_, err = f.archive.GetByID(context.Background(), game.ID)
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})
}

func TestGamePlayService_Leaderboard(t *testing.T) {
	f := newGamePlayFixture(t, ExpirePass)
	f.archive.leaderboard = []entity.LeaderboardEntry{{PlayerID: "p1", Wins: 3, Games: 4}, {PlayerID: "p2", Wins: 1, Games: 4}}

	entries, err := f.service.Leaderboard(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, []entity.LeaderboardEntry{{PlayerID: "p1", Wins: 3, Games: 4}}, entries)
}

func TestGameLocker(t *testing.T) {
	locker := newGameLocker()

	unlock := locker.Lock("g1")

	acquired := make(chan struct{})
	go func() {
		release := locker.Lock("g1")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while the first is held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	<-acquired

	assert.Eventually(t, func() bool { return locker.size() == 0 }, time.Second, 10*time.Millisecond)
}
