package services

import (
	"testing"

	"matchmaker/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierTable_Resolve(t *testing.T) {
	table := DefaultTierTable()

	tests := []struct {
		rating   int64
		expected int
	}{
		{-500, 1},
		{-1, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{200, 3},
		{349, 3},
		{350, 4},
		{450, 5},
		{599, 5},
		{600, 6},
		{800, 7},
		{1000, 8},
		{1299, 8},
		{1300, 9},
		{1999, 9},
		{2000, 10},
		{100000, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, table.Resolve(tt.rating).Level, "rating %d", tt.rating)
	}
}

func TestTierTable_ResolveIsMonotonic(t *testing.T) {
	table := DefaultTierTable()

	previous := table.Resolve(-1000).Level
	for rating := int64(-1000); rating <= 3000; rating++ {
		level := table.Resolve(rating).Level
		require.GreaterOrEqual(t, level, previous, "tier dropped at rating %d", rating)
		previous = level
	}
}

func TestNewTierTable_Validation(t *testing.T) {
	t.Run("empty table", func(t *testing.T) {
		_, err := NewTierTable(nil)
		assert.Error(t, err)
	})

	t.Run("thresholds out of order", func(t *testing.T) {
		_, err := NewTierTable([]entities.Tier{
			{Level: 1, MinRating: 0},
			{Level: 2, MinRating: 200},
			{Level: 3, MinRating: 100},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate threshold", func(t *testing.T) {
		_, err := NewTierTable([]entities.Tier{
			{Level: 1, MinRating: 0},
			{Level: 2, MinRating: 0},
		})
		assert.Error(t, err)
	})

	t.Run("table is copied", func(t *testing.T) {
		tiers := []entities.Tier{{Level: 1, MinRating: 0}, {Level: 2, MinRating: 50}}
		table, err := NewTierTable(tiers)
		require.NoError(t, err)

		tiers[1].MinRating = 5000
		assert.Equal(t, 2, table.Resolve(60).Level)
	})
}

func TestTierTable_RoleSync(t *testing.T) {
	table := DefaultTierTable()
	roles := entities.TierRoles{1: 101, 2: 102, 3: 103}

	t.Run("tier up", func(t *testing.T) {
		instruction := table.RoleSync(42, 90, 115, roles)
		assert.True(t, instruction.Changed())
		assert.Equal(t, int64(102), instruction.AddRole)
		assert.Equal(t, int64(101), instruction.RemoveRole)
	})

	t.Run("tier down", func(t *testing.T) {
		instruction := table.RoleSync(42, 210, 185, roles)
		assert.Equal(t, 3, instruction.OldTier)
		assert.Equal(t, 2, instruction.NewTier)
		assert.Equal(t, int64(102), instruction.AddRole)
		assert.Equal(t, int64(103), instruction.RemoveRole)
	})

	t.Run("same tier", func(t *testing.T) {
		instruction := table.RoleSync(42, 0, 25, roles)
		assert.False(t, instruction.Changed())
		assert.Zero(t, instruction.AddRole)
		assert.Zero(t, instruction.RemoveRole)
	})

	t.Run("unconfigured role", func(t *testing.T) {
		instruction := table.RoleSync(42, 340, 360, roles)
		assert.True(t, instruction.Changed())
		assert.Zero(t, instruction.AddRole)
		assert.Equal(t, int64(103), instruction.RemoveRole)
	})
}
