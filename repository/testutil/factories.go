package testutil

import (
	"context"
	"fmt"
	"testing"

	"matchmaker/domain/entities"

	"github.com/stretchr/testify/require"
)

// PlayerCreator is the subset of a player repository the factories need
type PlayerCreator interface {
	Create(ctx context.Context, discordID int64, username string) (*entities.Player, error)
}

// CreateTestPlayers registers a player named player<id> for each ID
func CreateTestPlayers(t *testing.T, repo PlayerCreator, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		_, err := repo.Create(context.Background(), id, fmt.Sprintf("player%d", id))
		require.NoError(t, err)
	}
}

// NewPendingMatch builds an unsaved 2v2 match between the given players
func NewPendingMatch(teamA, teamB []int64) *entities.Match {
	return &entities.Match{
		QueueType:     "2v2",
		TeamA:         teamA,
		TeamB:         teamB,
		MapName:       "Haven",
		RoomCreatorID: teamA[0],
		Passphrase:    "ABC123",
	}
}
