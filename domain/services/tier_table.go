package services

import (
	"fmt"
	"sort"

	"matchmaker/domain/entities"
)

// TierTable maps ratings to tiers. Immutable after construction.
type TierTable struct {
	tiers []entities.Tier
}

// NewTierTable validates that tiers are non-empty with strictly ascending MinRating
func NewTierTable(tiers []entities.Tier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("tier table requires at least one tier")
	}
	table := make([]entities.Tier, len(tiers))
	copy(table, tiers)
	for i := 1; i < len(table); i++ {
		if table[i].MinRating <= table[i-1].MinRating {
			return nil, fmt.Errorf("tier %d min rating %d must be greater than tier %d min rating %d",
				table[i].Level, table[i].MinRating, table[i-1].Level, table[i-1].MinRating)
		}
		if table[i].Level <= table[i-1].Level {
			return nil, fmt.Errorf("tier levels must ascend, got %d after %d", table[i].Level, table[i-1].Level)
		}
	}
	return &TierTable{tiers: table}, nil
}

// DefaultTierTable returns the ten-tier reference table
func DefaultTierTable() *TierTable {
	table, err := NewTierTable(entities.DefaultTiers())
	if err != nil {
		panic(err)
	}
	return table
}

// Resolve returns the tier with the greatest MinRating not above rating.
// Ratings below the lowest threshold resolve to the lowest tier.
func (t *TierTable) Resolve(rating int64) entities.Tier {
	// index of the first tier whose threshold is above rating
	idx := sort.Search(len(t.tiers), func(i int) bool {
		return t.tiers[i].MinRating > rating
	})
	if idx == 0 {
		return t.tiers[0]
	}
	return t.tiers[idx-1]
}

// Lowest returns the entry tier
func (t *TierTable) Lowest() entities.Tier {
	return t.tiers[0]
}

// Tiers returns a copy of the table
func (t *TierTable) Tiers() []entities.Tier {
	out := make([]entities.Tier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// RoleSync computes the role change implied by a rating move. Add and remove
// are zero when the tier did not change.
func (t *TierTable) RoleSync(playerID int64, oldRating, newRating int64, roles entities.TierRoles) entities.RoleSyncInstruction {
	oldTier := t.Resolve(oldRating)
	newTier := t.Resolve(newRating)
	instruction := entities.RoleSyncInstruction{
		PlayerID: playerID,
		OldTier:  oldTier.Level,
		NewTier:  newTier.Level,
	}
	if oldTier.Level != newTier.Level {
		instruction.AddRole = roles.RoleFor(newTier.Level)
		instruction.RemoveRole = roles.RoleFor(oldTier.Level)
	}
	return instruction
}
