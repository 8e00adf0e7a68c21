package common

import (
	"context"

	"matchmaker/domain/entities"
)

// RoleSyncer applies role changes to guild members
type RoleSyncer interface {
	ApplyRoleDelta(ctx context.Context, guildID int64, playerID int64, addRole int64, removeRole int64) error
	ApplyRoleSync(ctx context.Context, guildID int64, instructions []entities.RoleSyncInstruction)
}
