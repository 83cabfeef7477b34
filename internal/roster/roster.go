// Package roster defines the community domain model: registered bot users
// with their access roles, and quiz players with game-derived progression.
package roster

import (
	"errors"
	"strconv"
	"time"
)

// Role grants a registered user a set of bot capabilities.
// The enum is closed: every stored role is one of these two values.
type Role string

const (
	// RoleUser can use the public commands only.
	RoleUser Role = "user"
	// RoleAdmin can open the admin panel and manage users and players.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin reports whether the role grants admin workflows.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User is a whitelisted Telegram account.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Role      Role      `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DisplayName renders the most specific human-readable name available.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return "id:" + strconv.FormatInt(u.ID, 10)
	}
}

// Player is a quiz roster entry tracked by the community.
type Player struct {
	ID        int64     `db:"id"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Nickname  string    `db:"nickname"`
	PhotoPath string    `db:"photo_path"`
	Games     int       `db:"games"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// FullName joins the player's first and last name.
func (p Player) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Level returns the player's level derived from games played.
func (p Player) Level() int {
	return LevelFromGames(p.Games)
}

// Tier returns the player's experience tier derived from games played.
func (p Player) Tier() Tier {
	return TierFromGames(p.Games)
}

// Tier buckets players by quiz experience.
type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
	TierExpert       Tier = "expert"
)

const (
	gamesPerLevel = 5
	gamesPerTier  = 25
)

// LevelFromGames computes the level: one level per five games, uncapped.
func LevelFromGames(games int) int {
	if games < 0 {
		return 0
	}
	return games / gamesPerLevel
}

// TierFromGames buckets games played into a named experience tier.
// Boundaries are inclusive at the lower edge: 25 games is already intermediate.
func TierFromGames(games int) Tier {
	if games < 0 {
		games = 0
	}
	switch games / gamesPerTier {
	case 0:
		return TierBeginner
	case 1:
		return TierIntermediate
	case 2:
		return TierAdvanced
	default:
		return TierExpert
	}
}

// Domain errors shared by storage and workflow layers.
var (
	// ErrNotFound indicates the requested user or player does not exist.
	ErrNotFound = errors.New("roster: not found")
	// ErrAlreadyExists indicates a uniqueness conflict on insert.
	ErrAlreadyExists = errors.New("roster: already exists")
	// ErrAdminProtected indicates an attempt to delete an admin account.
	ErrAdminProtected = errors.New("roster: admin accounts cannot be deleted")
	// ErrInvalidInput indicates input that fails domain validation.
	ErrInvalidInput = errors.New("roster: invalid input")
)
