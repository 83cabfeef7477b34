package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"quizbot/core/logger"
	"quizbot/internal/roster"
	"log/slog"
)

// Players persists the quiz roster.
type Players struct {
	db *sqlx.DB
}

// NewPlayers constructs the player repository.
func NewPlayers(db *sqlx.DB) *Players {
	return &Players{db: db}
}

const playerColumns = `id, first_name, last_name, nickname, photo_path, games, created_at, updated_at`

// Insert adds a new player and returns the generated ID.
// A duplicate first+last name yields roster.ErrAlreadyExists and leaves the
// existing row untouched.
func (r *Players) Insert(ctx context.Context, p roster.Player) (int64, error) {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return 0, fmt.Errorf("%w: player name requires first and last name", roster.ErrInvalidInput)
	}
	if p.Games < 0 {
		return 0, fmt.Errorf("%w: games must be >= 0", roster.ErrInvalidInput)
	}
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO players (first_name, last_name, nickname, photo_path, games, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.FirstName, p.LastName, p.Nickname, p.PhotoPath, p.Games, now, now)
	if isUniqueViolation(err) {
		return 0, roster.ErrAlreadyExists
	}
	if err != nil {
		return 0, fmt.Errorf("players insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("players insert id: %w", err)
	}
	logger.SVCPlayers.InfoContext(ctx, "player added",
		slog.String("event", "player.insert"),
		slog.Int64("player_id", id),
		slog.Int("games", p.Games),
		slog.String("tier", string(roster.TierFromGames(p.Games))),
	)
	return id, nil
}

// Get returns a player by ID.
func (r *Players) Get(ctx context.Context, id int64) (roster.Player, error) {
	var p roster.Player
	err := r.db.GetContext(ctx, &p,
		`SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Player{}, roster.ErrNotFound
	}
	if err != nil {
		return roster.Player{}, fmt.Errorf("players get: %w", err)
	}
	return p, nil
}

// GetByName returns a player by exact first and last name.
func (r *Players) GetByName(ctx context.Context, first, last string) (roster.Player, error) {
	var p roster.Player
	err := r.db.GetContext(ctx, &p,
		`SELECT `+playerColumns+` FROM players WHERE first_name = ? AND last_name = ?`, first, last)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.Player{}, roster.ErrNotFound
	}
	if err != nil {
		return roster.Player{}, fmt.Errorf("players get by name: %w", err)
	}
	return p, nil
}

// List returns the full roster ordered by name.
func (r *Players) List(ctx context.Context) ([]roster.Player, error) {
	var players []roster.Player
	err := r.db.SelectContext(ctx, &players,
		`SELECT `+playerColumns+` FROM players ORDER BY first_name, last_name, id`)
	if err != nil {
		return nil, fmt.Errorf("players list: %w", err)
	}
	return players, nil
}

// Count returns the number of roster entries.
func (r *Players) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM players`); err != nil {
		return 0, fmt.Errorf("players count: %w", err)
	}
	return n, nil
}

// Update rewrites the mutable fields of an existing player.
func (r *Players) Update(ctx context.Context, p roster.Player) error {
	if p.Games < 0 {
		return fmt.Errorf("%w: games must be >= 0", roster.ErrInvalidInput)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE players
		    SET first_name = ?, last_name = ?, nickname = ?, photo_path = ?, games = ?, updated_at = ?
		  WHERE id = ?`,
		p.FirstName, p.LastName, p.Nickname, p.PhotoPath, p.Games, time.Now().UTC(), p.ID)
	if isUniqueViolation(err) {
		return roster.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("players update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrNotFound
	}
	return nil
}

// SetPhoto updates only the stored photo path.
func (r *Players) SetPhoto(ctx context.Context, id int64, photoPath string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET photo_path = ?, updated_at = ? WHERE id = ?`,
		photoPath, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("players set photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrNotFound
	}
	return nil
}

// IncrementGames adds delta games to the player and returns the updated row.
func (r *Players) IncrementGames(ctx context.Context, id int64, delta int) (roster.Player, error) {
	if delta <= 0 {
		return roster.Player{}, fmt.Errorf("%w: delta must be > 0", roster.ErrInvalidInput)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE players SET games = games + ?, updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id)
	if err != nil {
		return roster.Player{}, fmt.Errorf("players increment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.Player{}, roster.ErrNotFound
	}
	p, err := r.Get(ctx, id)
	if err != nil {
		return roster.Player{}, err
	}
	logger.SVCPlayers.InfoContext(ctx, "games incremented",
		slog.String("event", "player.games"),
		slog.Int64("player_id", id),
		slog.Int("games", p.Games),
		slog.String("tier", string(p.Tier())),
	)
	return p, nil
}

// Delete removes a player from the roster.
func (r *Players) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("players delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrNotFound
	}
	logger.SVCPlayers.InfoContext(ctx, "player deleted",
		slog.String("event", "player.delete"),
		slog.Int64("player_id", id),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
