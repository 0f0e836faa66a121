package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/reversi-backend/internal/apperror"
	"github.com/rocketscienceinc/reversi-backend/internal/entity"
)

var ErrArchivedGameNotFound = fmt.Errorf("archived game %w", apperror.ErrNotFound)

type ArchiveRepository interface {
	Save(ctx context.Context, game *entity.ArchivedGame) error
	GetByID(ctx context.Context, id string) (*entity.ArchivedGame, error)
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
}

type archiveRepository struct {
	conn *sql.DB
}

func NewArchiveRepository(conn *sql.DB) ArchiveRepository {
	return &archiveRepository{
		conn: conn,
	}
}

func (that *archiveRepository) Save(ctx context.Context, game *entity.ArchivedGame) error {
	query := `INSERT OR REPLACE INTO archived_games
		(id, type, winner, white_id, black_id, white_score, black_score, save_data, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		game.ID, game.Type, game.Winner, game.WhiteID, game.BlackID,
		game.Score.White, game.Score.Black, game.SaveData, game.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("can't save archived game: %w", err)
	}

	return nil
}

func (that *archiveRepository) GetByID(ctx context.Context, id string) (*entity.ArchivedGame, error) {
	query := `SELECT id, type, winner, white_id, black_id, white_score, black_score, save_data, finished_at
		FROM archived_games WHERE id = ?`

	var (
		game       entity.ArchivedGame
		finishedAt int64
	)

	err := that.conn.QueryRowContext(ctx, query, id).Scan(
		&game.ID, &game.Type, &game.Winner, &game.WhiteID, &game.BlackID,
		&game.Score.White, &game.Score.Black, &game.SaveData, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArchivedGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find archived game: %w", err)
	}

	game.FinishedAt = time.Unix(finishedAt, 0).UTC()

	return &game, nil
}

// Leaderboard ranks human players by wins, then by fewer games played.
func (that *archiveRepository) Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	query := `SELECT player_id, SUM(won) AS wins, COUNT(*) AS games FROM (
			SELECT white_id AS player_id, winner = 'white' AS won FROM archived_games
			UNION ALL
			SELECT black_id AS player_id, winner = 'black' AS won FROM archived_games
		)
		WHERE player_id <> '' AND player_id NOT LIKE 'bot:%'
		GROUP BY player_id
		ORDER BY wins DESC, games ASC, player_id ASC
		LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("can't query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]entity.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var entry entity.LeaderboardEntry
		if err = rows.Scan(&entry.PlayerID, &entry.Wins, &entry.Games); err != nil {
			return nil, fmt.Errorf("can't scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't read leaderboard: %w", err)
	}

	return entries, nil
}
