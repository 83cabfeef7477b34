package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"quizbot/core/logger"
	"quizbot/internal/roster"
	"log/slog"
)

// Users persists the whitelist of registered bot users.
type Users struct {
	db *sqlx.DB
}

// NewUsers constructs the user repository.
func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

// Get returns a user by Telegram ID.
func (r *Users) Get(ctx context.Context, id int64) (roster.User, error) {
	var u roster.User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, username, first_name, last_name, role, created_at, updated_at
		   FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.User{}, roster.ErrNotFound
	}
	if err != nil {
		return roster.User{}, fmt.Errorf("users get: %w", err)
	}
	return u, nil
}

// Exists reports whether the user is registered.
func (r *Users) Exists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM users WHERE id = ?`, id); err != nil {
		return false, fmt.Errorf("users exists: %w", err)
	}
	return n > 0, nil
}

// Resolve implements the access-control role lookup: it returns the user's
// role and whether the user is registered at all.
func (r *Users) Resolve(ctx context.Context, id int64) (string, bool, error) {
	u, err := r.Get(ctx, id)
	if errors.Is(err, roster.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(u.Role), true, nil
}

// List returns all registered users ordered by creation time.
func (r *Users) List(ctx context.Context) ([]roster.User, error) {
	var users []roster.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, username, first_name, last_name, role, created_at, updated_at
		   FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("users list: %w", err)
	}
	return users, nil
}

// ListByRole returns users holding the given role.
func (r *Users) ListByRole(ctx context.Context, role roster.Role) ([]roster.User, error) {
	var users []roster.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, username, first_name, last_name, role, created_at, updated_at
		   FROM users WHERE role = ? ORDER BY created_at, id`, role)
	if err != nil {
		return nil, fmt.Errorf("users list by role: %w", err)
	}
	return users, nil
}

// Insert registers a new user. A duplicate ID yields roster.ErrAlreadyExists.
func (r *Users) Insert(ctx context.Context, u roster.User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: role %q", roster.ErrInvalidInput, u.Role)
	}
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, first_name, last_name, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.FirstName, u.LastName, u.Role, now, now)
	if isUniqueViolation(err) {
		return roster.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("users insert: %w", err)
	}
	logger.SVCUsers.InfoContext(ctx, "user registered",
		slog.String("event", "user.insert"),
		slog.Int64("target_id", u.ID),
		slog.String("role", string(u.Role)),
	)
	return nil
}

// UpdateRole changes the role of an existing user.
func (r *Users) UpdateRole(ctx context.Context, id int64, role roster.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", roster.ErrInvalidInput, role)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("users update role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrNotFound
	}
	logger.SVCUsers.InfoContext(ctx, "role updated",
		slog.String("event", "user.role"),
		slog.Int64("target_id", id),
		slog.String("role", string(role)),
	)
	return nil
}

// Delete removes a registered user. Admin accounts are protected; demote
// them first with UpdateRole.
func (r *Users) Delete(ctx context.Context, id int64) error {
	u, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if u.Role.IsAdmin() {
		return roster.ErrAdminProtected
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("users delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return roster.ErrNotFound
	}
	logger.SVCUsers.InfoContext(ctx, "user deleted",
		slog.String("event", "user.delete"),
		slog.Int64("target_id", id),
	)
	return nil
}

// SeedAdmins ensures every configured admin ID exists with the admin role.
// Existing rows keep their profile fields but are promoted if needed.
// Returns the number of newly inserted accounts.
func (r *Users) SeedAdmins(ctx context.Context, ids []int64) (int, error) {
	created := 0
	for _, id := range ids {
		existing, err := r.Get(ctx, id)
		switch {
		case errors.Is(err, roster.ErrNotFound):
			if err := r.Insert(ctx, roster.User{ID: id, Role: roster.RoleAdmin}); err != nil {
				return created, fmt.Errorf("seed admin %d: %w", id, err)
			}
			created++
		case err != nil:
			return created, fmt.Errorf("seed admin %d: %w", id, err)
		default:
			if existing.Role != roster.RoleAdmin {
				if err := r.UpdateRole(ctx, id, roster.RoleAdmin); err != nil {
					return created, fmt.Errorf("seed admin %d: %w", id, err)
				}
			}
		}
	}
	logger.SEED.InfoContext(ctx, "admins seeded",
		slog.String("event", "seed.admins"),
		slog.Int("count", len(ids)),
		slog.Int("created", created),
	)
	return created, nil
}
