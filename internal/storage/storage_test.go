package storage

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizbot/internal/roster"
)

const testSchema = `
CREATE TABLE users (
    id         INTEGER PRIMARY KEY,
    username   TEXT NOT NULL DEFAULT '',
    first_name TEXT NOT NULL DEFAULT '',
    last_name  TEXT NOT NULL DEFAULT '',
    role       TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE players (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    first_name TEXT NOT NULL,
    last_name  TEXT NOT NULL,
    nickname   TEXT NOT NULL DEFAULT '',
    photo_path TEXT NOT NULL DEFAULT '',
    games      INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (first_name, last_name)
);
`

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func TestUsersInsertAndResolve(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	require.NoError(t, users.Insert(ctx, roster.User{
		ID: 100, Username: "ada", FirstName: "Ada", Role: roster.RoleAdmin,
	}))

	role, registered, err := users.Resolve(ctx, 100)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, "admin", role)

	_, registered, err = users.Resolve(ctx, 999)
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestUsersInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	require.NoError(t, users.Insert(ctx, roster.User{ID: 1, Role: roster.RoleUser}))
	err := users.Insert(ctx, roster.User{ID: 1, Role: roster.RoleAdmin})
	assert.ErrorIs(t, err, roster.ErrAlreadyExists)

	// Original row is untouched.
	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleUser, u.Role)
}

func TestUsersInsertRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))
	err := users.Insert(ctx, roster.User{ID: 2, Role: roster.Role("owner")})
	assert.ErrorIs(t, err, roster.ErrInvalidInput)
}

func TestUsersDeleteProtectsAdmins(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	require.NoError(t, users.Insert(ctx, roster.User{ID: 1, Role: roster.RoleAdmin}))
	require.NoError(t, users.Insert(ctx, roster.User{ID: 2, Role: roster.RoleAdmin}))
	require.NoError(t, users.Insert(ctx, roster.User{ID: 3, Role: roster.RoleUser}))

	assert.ErrorIs(t, users.Delete(ctx, 1), roster.ErrAdminProtected)
	assert.ErrorIs(t, users.Delete(ctx, 2), roster.ErrAdminProtected)
	assert.NoError(t, users.Delete(ctx, 3))
	assert.ErrorIs(t, users.Delete(ctx, 3), roster.ErrNotFound)
}

func TestUsersUpdateRole(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	require.NoError(t, users.Insert(ctx, roster.User{ID: 5, Role: roster.RoleUser}))
	require.NoError(t, users.UpdateRole(ctx, 5, roster.RoleAdmin))

	u, err := users.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleAdmin, u.Role)

	assert.ErrorIs(t, users.UpdateRole(ctx, 6, roster.RoleAdmin), roster.ErrNotFound)
	assert.ErrorIs(t, users.UpdateRole(ctx, 5, roster.Role("boss")), roster.ErrInvalidInput)
}

func TestUsersSeedAdmins(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t))

	require.NoError(t, users.Insert(ctx, roster.User{ID: 10, Username: "old", Role: roster.RoleUser}))

	created, err := users.SeedAdmins(ctx, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	u10, err := users.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleAdmin, u10.Role)
	assert.Equal(t, "old", u10.Username, "seeding must keep existing profile fields")

	u11, err := users.Get(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, roster.RoleAdmin, u11.Role)

	// Seeding is idempotent.
	created, err = users.SeedAdmins(ctx, []int64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestPlayersInsertDuplicateLeavesOriginal(t *testing.T) {
	ctx := context.Background()
	players := NewPlayers(newTestDB(t))

	id, err := players.Insert(ctx, roster.Player{FirstName: "Ada", LastName: "Lovelace", Games: 30})
	require.NoError(t, err)

	_, err = players.Insert(ctx, roster.Player{FirstName: "Ada", LastName: "Lovelace", Games: 1})
	assert.ErrorIs(t, err, roster.ErrAlreadyExists)

	p, err := players.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 30, p.Games)
	assert.Equal(t, 6, p.Level())
	assert.Equal(t, roster.TierIntermediate, p.Tier())
}

func TestPlayersInsertValidation(t *testing.T) {
	ctx := context.Background()
	players := NewPlayers(newTestDB(t))

	_, err := players.Insert(ctx, roster.Player{FirstName: "OnlyFirst"})
	assert.ErrorIs(t, err, roster.ErrInvalidInput)

	_, err = players.Insert(ctx, roster.Player{FirstName: "A", LastName: "B", Games: -1})
	assert.ErrorIs(t, err, roster.ErrInvalidInput)
}

func TestPlayersIncrementGames(t *testing.T) {
	ctx := context.Background()
	players := NewPlayers(newTestDB(t))

	id, err := players.Insert(ctx, roster.Player{FirstName: "Alan", LastName: "Turing", Games: 24})
	require.NoError(t, err)

	p, err := players.IncrementGames(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Games)
	assert.Equal(t, roster.TierIntermediate, p.Tier())

	_, err = players.IncrementGames(ctx, id, 0)
	assert.ErrorIs(t, err, roster.ErrInvalidInput)

	_, err = players.IncrementGames(ctx, 999, 1)
	assert.ErrorIs(t, err, roster.ErrNotFound)
}

func TestPlayersListAndDelete(t *testing.T) {
	ctx := context.Background()
	players := NewPlayers(newTestDB(t))

	_, err := players.Insert(ctx, roster.Player{FirstName: "Bea", LastName: "Zulu"})
	require.NoError(t, err)
	idA, err := players.Insert(ctx, roster.Player{FirstName: "Ada", LastName: "Alpha"})
	require.NoError(t, err)

	list, err := players.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Ada", list[0].FirstName, "list must be name ordered")

	require.NoError(t, players.Delete(ctx, idA))
	n, err := players.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, players.Delete(ctx, idA), roster.ErrNotFound)
}

func TestPlayersGetByNameAndSetPhoto(t *testing.T) {
	ctx := context.Background()
	players := NewPlayers(newTestDB(t))

	id, err := players.Insert(ctx, roster.Player{FirstName: "Grace", LastName: "Hopper", Nickname: "Amazing"})
	require.NoError(t, err)

	p, err := players.GetByName(ctx, "Grace", "Hopper")
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Amazing", p.Nickname)

	require.NoError(t, players.SetPhoto(ctx, id, "photos/grace.jpg"))
	p, err = players.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "photos/grace.jpg", p.PhotoPath)

	_, err = players.GetByName(ctx, "No", "Body")
	assert.ErrorIs(t, err, roster.ErrNotFound)
}
