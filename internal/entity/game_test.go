package entity

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/reversi"
)

func ongoingGame(t *testing.T) *Game {
	t.Helper()

	game := NewGame("123", PrivateType)
	game.Status = StatusOngoing
	game.Players = []*Player{
		{ID: "p1", Mark: PlayerWhite, GameID: "123"},
		{ID: "p2", Mark: PlayerBlack, GameID: "123"},
	}

	return game
}

func TestNewGame(t *testing.T) {
	// When: a new game is created
	game := NewGame("123", PublicType)

	// Then: it waits on the starting position with white to move
	assert.Equal(t, StatusWaiting, game.Status)
	assert.Equal(t, PlayerWhite, game.Turn)
	assert.Equal(t, reversi.NewGrid(), game.Board)
	assert.Equal(t, Score{White: 2, Black: 2}, game.Score)
	assert.Equal(t, []reversi.Coord{{Row: 2, Col: 4}, {Row: 3, Col: 5}, {Row: 4, Col: 2}, {Row: 5, Col: 3}}, game.LegalMoves)
	assert.Empty(t, game.Winner)
}

func TestGameStatusMethods(t *testing.T) {
	t.Run("IsFinished returns true when game status is finished", func(t *testing.T) {
		// Given: a game with StatusFinished
		game := &Game{Status: StatusFinished}

		// When: checking if the game is finished
		isFinished := game.IsFinished()

		// Then: it should return true
		assert.True(t, isFinished)
	})

	t.Run("IsOngoing returns true when game status is ongoing", func(t *testing.T) {
		game := &Game{Status: StatusOngoing}

		assert.True(t, game.IsOngoing())
	})

	t.Run("IsWaiting returns true when game status is waiting", func(t *testing.T) {
		game := &Game{Status: StatusWaiting}

		assert.True(t, game.IsWaiting())
	})
}

func TestGame_ConfirmOngoingState(t *testing.T) {
	t.Run("Returns nil when game is ongoing", func(t *testing.T) {
		// Given: a game with StatusOngoing
		game := &Game{Status: StatusOngoing}

		// When: checking if the game is active
		err := game.ConfirmOngoingState()

		// Then: it should return nil error
		assert.NoError(t, err)
	})

	t.Run("Returns ErrGameIsNotStarted when game is waiting", func(t *testing.T) {
		game := &Game{Status: StatusWaiting}

		err := game.ConfirmOngoingState()

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Returns ErrGameFinished when game is finished", func(t *testing.T) {
		game := &Game{Status: StatusFinished}

		err := game.ConfirmOngoingState()

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Returns error for unknown game status", func(t *testing.T) {
		game := &Game{Status: "unknown"}

		err := game.ConfirmOngoingState()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownGameStatus)
	})
}

func TestGame_MakeTurn(t *testing.T) {
	t.Run("Successful Turn", func(t *testing.T) {
		// Given: an ongoing game
		game := ongoingGame(t)

		// When: white plays (2,4)
		err := game.MakeTurn(PlayerWhite, reversi.Coord{Row: 2, Col: 4})
		require.NoError(t, err)

		// Then: the flip is recorded, scores are updated and black is to move
		assert.Equal(t, PlayerBlack, game.Turn)
		assert.Equal(t, &reversi.Coord{Row: 2, Col: 4}, game.LastMove)
		assert.Equal(t, []reversi.Coord{{Row: 3, Col: 4}}, game.LastFlips)
		assert.Equal(t, Score{White: 4, Black: 1}, game.Score)
		assert.Equal(t, StatusOngoing, game.Status)
		assert.NotEmpty(t, game.LegalMoves)
		assert.Equal(t, 1, game.Ply)
	})

	t.Run("Error on Playing Out of Turn", func(t *testing.T) {
		// Given: a new game where it's white's turn
		game := ongoingGame(t)

		// When: black tries to make a move
		err := game.MakeTurn(PlayerBlack, reversi.Coord{Row: 2, Col: 3})

		// Then: an ErrNotYourTurn error should be returned and nothing changes
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, reversi.NewGrid(), game.Board)
		assert.Equal(t, PlayerWhite, game.Turn)
		assert.Zero(t, game.Ply)
	})

	t.Run("Error on Illegal Cell", func(t *testing.T) {
		game := ongoingGame(t)

		err := game.MakeTurn(PlayerWhite, reversi.Coord{Row: 0, Col: 0})

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		assert.ErrorIs(t, err, reversi.ErrIllegalMove)
		assert.Equal(t, reversi.NewGrid(), game.Board)
	})

	t.Run("Error on Out of Bounds Cell", func(t *testing.T) {
		game := ongoingGame(t)

		err := game.MakeTurn(PlayerWhite, reversi.Coord{Row: -1, Col: 3})

		assert.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("Error when game is waiting", func(t *testing.T) {
		game := NewGame("123", PrivateType)

		err := game.MakeTurn(PlayerWhite, reversi.Coord{Row: 2, Col: 4})

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Last capture finishes the game", func(t *testing.T) {
		// Given: white can take black's only disc
		game := ongoingGame(t)
		require.NoError(t, game.LoadSaveData(strings.NewReader(saveText(t, map[reversi.Coord]reversi.Player{
			{Row: 0, Col: 1}: reversi.Black,
			{Row: 0, Col: 2}: reversi.White,
		}, reversi.White))))

		// When: white captures it
		err := game.MakeTurn(PlayerWhite, reversi.Coord{Row: 0, Col: 0})
		require.NoError(t, err)

		// Then: the game is finished in white's favour
		assert.True(t, game.IsFinished())
		assert.Equal(t, PlayerWhite, game.Winner)
		assert.Equal(t, Score{White: 3, Black: 0}, game.Score)
		assert.Empty(t, game.LegalMoves)
	})
}

func TestGame_ForcePass(t *testing.T) {
	// Given: an ongoing game with white to move
	game := ongoingGame(t)

	// When: the turn is forced to pass
	err := game.ForcePass()

	// Then: black moves next on an unchanged board
	require.NoError(t, err)
	assert.Equal(t, PlayerBlack, game.Turn)
	assert.Equal(t, reversi.NewGrid(), game.Board)
	assert.Equal(t, []reversi.Coord{{Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 4, Col: 5}, {Row: 5, Col: 4}}, game.LegalMoves)
	assert.Equal(t, 1, game.Ply)
}

func TestGame_SaveData(t *testing.T) {
	t.Run("Round trip keeps board and turn", func(t *testing.T) {
		// Given: a game after one ply
		game := ongoingGame(t)
		require.NoError(t, game.MakeTurn(PlayerWhite, reversi.Coord{Row: 2, Col: 4}))

		var buf bytes.Buffer
		require.NoError(t, game.SaveData(&buf))

		// When: the save is loaded into another game
		loaded := ongoingGame(t)
		err := loaded.LoadSaveData(&buf)

		// Then: the position is the same
		require.NoError(t, err)
		assert.Equal(t, game.Board, loaded.Board)
		assert.Equal(t, game.Turn, loaded.Turn)
		assert.Equal(t, game.Score, loaded.Score)
		assert.Nil(t, loaded.LastFlips)
		assert.Equal(t, 1, loaded.Ply)
	})

	t.Run("Malformed data leaves the game untouched", func(t *testing.T) {
		game := ongoingGame(t)

		err := game.LoadSaveData(strings.NewReader("0,0,-1\n"))

		require.ErrorIs(t, err, apperror.ErrMalformedSave)
		assert.ErrorIs(t, err, reversi.ErrMalformedSaveData)
		assert.Equal(t, reversi.NewGrid(), game.Board)
		assert.Zero(t, game.Ply)
	})
}

func TestGame_MovesFor(t *testing.T) {
	game := ongoingGame(t)

	moves, err := game.MovesFor(PlayerBlack)

	require.NoError(t, err)
	assert.Equal(t, []reversi.Coord{{Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 4, Col: 5}, {Row: 5, Col: 4}}, moves)

	_, err = game.MovesFor("green")
	assert.ErrorIs(t, err, reversi.ErrInvalidPlayer)
}

func TestGame_Players(t *testing.T) {
	game := ongoingGame(t)

	assert.Equal(t, "p2", game.PlayerByMark(PlayerBlack).ID)
	assert.Equal(t, PlayerWhite, game.PlayerByID("p1").Mark)
	assert.Equal(t, "p1", game.Opponent("p2").ID)
	assert.Nil(t, game.PlayerByID("nobody"))
	assert.True(t, game.IsFull())
}

func TestArchivedGame(t *testing.T) {
	// Given: a game finished by forfeit
	game := ongoingGame(t)
	require.NoError(t, game.MakeTurn(PlayerWhite, reversi.Coord{Row: 2, Col: 4}))
	game.Finish(PlayerBlack)

	finishedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// When: it is archived and rebuilt
	archived, err := NewArchivedGame(game, finishedAt)
	require.NoError(t, err)

	restored, err := archived.Game()
	require.NoError(t, err)

	// Then: the record keeps seats, result and final position
	assert.Equal(t, "p1", archived.WhiteID)
	assert.Equal(t, "p2", archived.BlackID)
	assert.Equal(t, PlayerBlack, archived.Winner)
	assert.Equal(t, finishedAt, archived.FinishedAt)

	assert.Equal(t, game.Board, restored.Board)
	assert.Equal(t, PlayerBlack, restored.Winner)
	assert.True(t, restored.IsFinished())
	assert.Len(t, restored.Players, 2)
}

func TestBotPlayer(t *testing.T) {
	bot := NewBotPlayer("g1", PlayerBlack)

	assert.True(t, bot.IsBot())
	assert.Equal(t, "bot:g1", bot.ID)
	assert.False(t, (&Player{ID: "p1"}).IsBot())
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
