package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"matchmaker/domain/entities"
	"matchmaker/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepositoryScoped(testDB.DB.Pool, testGuildID)
	ctx := context.Background()

	t.Run("missing match", func(t *testing.T) {
		match, err := repo.GetByID(ctx, 12345)
		require.NoError(t, err)
		assert.Nil(t, match)
	})

	t.Run("round trip", func(t *testing.T) {
		textID := int64(555)
		match := testutil.NewPendingMatch([]int64{1, 2}, []int64{3, 4})
		match.TextChannelID = &textID

		require.NoError(t, repo.Create(ctx, match))
		assert.NotZero(t, match.ID)
		assert.False(t, match.CreatedAt.IsZero())

		found, err := repo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, testGuildID, found.GuildID)
		assert.Equal(t, []int64{1, 2}, found.TeamA)
		assert.Equal(t, []int64{3, 4}, found.TeamB)
		assert.Equal(t, "Haven", found.MapName)
		assert.Equal(t, "ABC123", found.Passphrase)
		assert.Nil(t, found.WinningTeam)
		assert.Nil(t, found.ResolvedAt)
		require.NotNil(t, found.TextChannelID)
		assert.Equal(t, textID, *found.TextChannelID)
		assert.Nil(t, found.TeamAVoiceID)
	})

	t.Run("overlapping teams rejected", func(t *testing.T) {
		err := repo.Create(ctx, testutil.NewPendingMatch([]int64{1, 2}, []int64{2, 3}))
		assert.Error(t, err)
	})

	t.Run("other guild cannot see match", func(t *testing.T) {
		match := testutil.NewPendingMatch([]int64{7}, []int64{8})
		require.NoError(t, repo.Create(ctx, match))

		other := NewMatchRepositoryScoped(testDB.DB.Pool, testGuildID+1)
		found, err := other.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestMatchRepository_RecordWinner(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepositoryScoped(testDB.DB.Pool, testGuildID)
	ctx := context.Background()

	match := testutil.NewPendingMatch([]int64{1, 2}, []int64{3, 4})
	require.NoError(t, repo.Create(ctx, match))

	t.Run("first report wins", func(t *testing.T) {
		require.NoError(t, repo.RecordWinner(ctx, match.ID, entities.TeamB, 3))

		found, err := repo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		require.NotNil(t, found.WinningTeam)
		assert.Equal(t, entities.TeamB, *found.WinningTeam)
		require.NotNil(t, found.ReportedBy)
		assert.Equal(t, int64(3), *found.ReportedBy)
		assert.NotNil(t, found.ResolvedAt)
	})

	t.Run("second report rejected", func(t *testing.T) {
		err := repo.RecordWinner(ctx, match.ID, entities.TeamA, 1)
		assert.ErrorIs(t, err, entities.ErrAlreadyRecorded)

		found, err := repo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.TeamB, *found.WinningTeam)
	})

	t.Run("unknown match", func(t *testing.T) {
		err := repo.RecordWinner(ctx, 99999, entities.TeamA, 1)
		assert.ErrorIs(t, err, entities.ErrMatchNotFound)
	})
}

func TestMatchRepository_RecordWinnerConcurrent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepositoryScoped(testDB.DB.Pool, testGuildID)
	ctx := context.Background()

	match := testutil.NewPendingMatch([]int64{1, 2}, []int64{3, 4})
	require.NoError(t, repo.Create(ctx, match))

	const reporters = 8
	var wg sync.WaitGroup
	results := make(chan error, reporters)
	for i := 0; i < reporters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			side := entities.TeamA
			if i%2 == 1 {
				side = entities.TeamB
			}
			results <- repo.RecordWinner(ctx, match.ID, side, int64(i%4+1))
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, rejected int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, entities.ErrAlreadyRecorded):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, reporters-1, rejected)
}

func TestMatchRepository_Listing(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMatchRepositoryScoped(testDB.DB.Pool, testGuildID)
	ctx := context.Background()

	first := testutil.NewPendingMatch([]int64{1}, []int64{2})
	second := testutil.NewPendingMatch([]int64{3}, []int64{4})
	third := testutil.NewPendingMatch([]int64{5}, []int64{6})
	for _, m := range []*entities.Match{first, second, third} {
		require.NoError(t, repo.Create(ctx, m))
	}
	require.NoError(t, repo.RecordWinner(ctx, second.ID, entities.TeamA, 3))
	require.NoError(t, repo.MarkDisputed(ctx, third.ID))

	pending, err := repo.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, third.ID, pending[1].ID)
	assert.True(t, pending[1].Disputed)

	recent, err := repo.GetRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, third.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	assert.ErrorIs(t, repo.MarkDisputed(ctx, 424242), entities.ErrMatchNotFound)
}
