package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromGames(t *testing.T) {
	cases := []struct {
		games int
		level int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{29, 5},
		{30, 6},
		{100, 20},
		{-3, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelFromGames(tc.games), "games=%d", tc.games)
	}
}

func TestTierFromGames(t *testing.T) {
	cases := []struct {
		games int
		tier  Tier
	}{
		{0, TierBeginner},
		{24, TierBeginner},
		{25, TierIntermediate},
		{30, TierIntermediate},
		{49, TierIntermediate},
		{50, TierAdvanced},
		{74, TierAdvanced},
		{75, TierExpert},
		{500, TierExpert},
		{-1, TierBeginner},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.tier, TierFromGames(tc.games), "games=%d", tc.games)
	}
}

func TestLevelMonotonic(t *testing.T) {
	prev := 0
	for g := 0; g <= 200; g++ {
		lvl := LevelFromGames(g)
		assert.GreaterOrEqual(t, lvl, prev, "level must never decrease (games=%d)", g)
		prev = lvl
	}
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.IsAdmin())
	assert.False(t, RoleUser.IsAdmin())

	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("owner").Valid())
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", User{FirstName: "Ada", LastName: "Lovelace"}.DisplayName())
	assert.Equal(t, "Ada", User{FirstName: "Ada"}.DisplayName())
	assert.Equal(t, "@ada", User{Username: "ada"}.DisplayName())
	assert.Equal(t, "id:42", User{ID: 42}.DisplayName())
}
