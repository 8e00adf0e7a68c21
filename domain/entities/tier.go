package entities

// Tier is a rating band
type Tier struct {
	Level     int
	MinRating int64
}

// DefaultTiers returns the reference ten-level configuration
func DefaultTiers() []Tier {
	return []Tier{
		{Level: 1, MinRating: 0},
		{Level: 2, MinRating: 100},
		{Level: 3, MinRating: 200},
		{Level: 4, MinRating: 350},
		{Level: 5, MinRating: 450},
		{Level: 6, MinRating: 600},
		{Level: 7, MinRating: 800},
		{Level: 8, MinRating: 1000},
		{Level: 9, MinRating: 1300},
		{Level: 10, MinRating: 2000},
	}
}

// TierRoles maps tier level to a Discord role ID. Built once at startup.
type TierRoles map[int]int64

// RoleFor returns the role of a tier level, or 0 if none is configured
func (r TierRoles) RoleFor(level int) int64 {
	if r == nil {
		return 0
	}
	return r[level]
}

// AllRolesExcept returns every configured role ID except the one for keepLevel
func (r TierRoles) AllRolesExcept(keepLevel int) []int64 {
	var roles []int64
	for level, role := range r {
		if level != keepLevel && role != 0 {
			roles = append(roles, role)
		}
	}
	return roles
}

// RoleSyncInstruction tells the transport how to update a player's tier role
type RoleSyncInstruction struct {
	PlayerID   int64
	OldTier    int
	NewTier    int
	AddRole    int64
	RemoveRole int64
}

// Changed reports whether the tier moved
func (i RoleSyncInstruction) Changed() bool {
	return i.OldTier != i.NewTier
}
