package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"matchmaker/config"
	"matchmaker/domain/entities"
	"matchmaker/domain/events"
	"matchmaker/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testTeamA = []int64{1, 2, 3, 4}
	testTeamB = []int64{5, 6, 7, 8}
)

type ledgerFixture struct {
	ledger    *resultLedger
	players   *testhelpers.InMemoryPlayerRepository
	matches   *testhelpers.InMemoryMatchRepository
	publisher *testhelpers.MockEventPublisher
	matchID   int64
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	config.SetTestConfig(config.NewTestConfig())

	players := testhelpers.NewInMemoryPlayerRepository(append(append([]int64{}, testTeamA...), testTeamB...)...)
	matches := testhelpers.NewInMemoryMatchRepository()
	publisher := new(testhelpers.MockEventPublisher)
	publisher.On("Publish", mock.Anything).Return(nil)

	match := &entities.Match{GuildID: 77, QueueType: "4v4", TeamA: testTeamA, TeamB: testTeamB, MapName: "Urban"}
	require.NoError(t, matches.Create(context.Background(), match))

	ledger := NewResultLedger(players, matches, publisher, DefaultTierTable(), config.Get().TierRoles()).(*resultLedger)
	return &ledgerFixture{ledger: ledger, players: players, matches: matches, publisher: publisher, matchID: match.ID}
}

func (f *ledgerFixture) player(t *testing.T, id int64) *entities.Player {
	t.Helper()
	p, err := f.players.GetByDiscordID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestResultLedger_RecordResult(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	outcome, err := f.ledger.RecordResult(ctx, f.matchID, entities.TeamA, entities.Reporter{DiscordID: 1})
	require.NoError(t, err)

	assert.Equal(t, entities.TeamA, outcome.WinningTeam)
	assert.True(t, outcome.RefreshLeaderboard)
	require.Len(t, outcome.Changes, 8)
	require.Len(t, outcome.RoleSync, 8)

	var sum int64
	for _, change := range outcome.Changes {
		sum += change.Delta
		if change.Side == entities.TeamA {
			assert.True(t, change.Won)
			assert.Equal(t, int64(25), change.Delta)
		} else {
			assert.False(t, change.Won)
			assert.Equal(t, int64(-25), change.Delta)
		}
		assert.Equal(t, change.OldRating+change.Delta, change.NewRating)
	}
	assert.Zero(t, sum, "rating deltas must be zero-sum")

	for _, id := range testTeamA {
		p := f.player(t, id)
		assert.Equal(t, int64(25), p.Rating)
		assert.Equal(t, 1, p.Wins)
		assert.Equal(t, 0, p.Losses)
	}
	for _, id := range testTeamB {
		p := f.player(t, id)
		assert.Equal(t, int64(-25), p.Rating)
		assert.Equal(t, 0, p.Wins)
		assert.Equal(t, 1, p.Losses)
	}

	stored, err := f.matches.GetByID(ctx, f.matchID)
	require.NoError(t, err)
	require.NotNil(t, stored.WinningTeam)
	assert.Equal(t, entities.TeamA, *stored.WinningTeam)

	f.publisher.AssertCalled(t, "Publish", mock.MatchedBy(func(e events.Event) bool {
		recorded, ok := e.(events.MatchResultRecordedEvent)
		return ok && recorded.MatchID == f.matchID && recorded.WinningTeam == entities.TeamA && len(recorded.Changes) == 8
	}))
}

func TestResultLedger_SecondReportMutatesNothing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	_, err := f.ledger.RecordResult(ctx, f.matchID, entities.TeamA, entities.Reporter{DiscordID: 1})
	require.NoError(t, err)

	for _, reporter := range []entities.Reporter{{DiscordID: 5}, {DiscordID: 1}, {DiscordID: 999999, Admin: true}} {
		_, err = f.ledger.RecordResult(ctx, f.matchID, entities.TeamB, reporter)
		assert.ErrorIs(t, err, entities.ErrAlreadyRecorded)
	}

	for _, id := range testTeamA {
		assert.Equal(t, int64(25), f.player(t, id).Rating)
	}
	for _, id := range testTeamB {
		p := f.player(t, id)
		assert.Equal(t, int64(-25), p.Rating)
		assert.Equal(t, 1, p.Losses)
	}
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestResultLedger_TierChangeProducesRoleSync(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	// winners sit just under tier 2, losers just above it
	for _, id := range testTeamA {
		require.NoError(t, f.players.SetRating(ctx, id, 90, false))
	}
	for _, id := range testTeamB {
		require.NoError(t, f.players.SetRating(ctx, id, 110, false))
	}

	outcome, err := f.ledger.RecordResult(ctx, f.matchID, entities.TeamA, entities.Reporter{DiscordID: 2})
	require.NoError(t, err)

	for _, instruction := range outcome.RoleSync {
		if instruction.PlayerID <= 4 {
			assert.Equal(t, 1, instruction.OldTier)
			assert.Equal(t, 2, instruction.NewTier)
			assert.Equal(t, int64(102), instruction.AddRole)
			assert.Equal(t, int64(101), instruction.RemoveRole)
		} else {
			assert.Equal(t, 2, instruction.OldTier)
			assert.Equal(t, 1, instruction.NewTier)
			assert.Equal(t, int64(101), instruction.AddRole)
			assert.Equal(t, int64(102), instruction.RemoveRole)
		}
	}
}

func TestResultLedger_Authorization(t *testing.T) {
	t.Run("non participant", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.RecordResult(context.Background(), f.matchID, entities.TeamA, entities.Reporter{DiscordID: 42})
		assert.ErrorIs(t, err, entities.ErrNotParticipant)
		assert.Zero(t, f.player(t, 1).Rating)
	})

	t.Run("admin outside the match", func(t *testing.T) {
		f := newLedgerFixture(t)
		outcome, err := f.ledger.RecordResult(context.Background(), f.matchID, entities.TeamB, entities.Reporter{DiscordID: 42, Admin: true})
		require.NoError(t, err)
		assert.Equal(t, entities.TeamB, outcome.WinningTeam)
		assert.Equal(t, int64(25), f.player(t, 5).Rating)
	})

	t.Run("missing match", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.RecordResult(context.Background(), 12345, entities.TeamA, entities.Reporter{DiscordID: 1})
		assert.ErrorIs(t, err, entities.ErrMatchNotFound)
	})

	t.Run("invalid side", func(t *testing.T) {
		f := newLedgerFixture(t)
		_, err := f.ledger.RecordResult(context.Background(), f.matchID, entities.TeamSide("C"), entities.Reporter{DiscordID: 1})
		assert.Error(t, err)
	})
}

func TestResultLedger_ConcurrentReporters(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	reporters := []struct {
		winner   entities.TeamSide
		reporter entities.Reporter
	}{
		{entities.TeamA, entities.Reporter{DiscordID: 1}},
		{entities.TeamB, entities.Reporter{DiscordID: 999999, Admin: true}},
		{entities.TeamB, entities.Reporter{DiscordID: 6}},
		{entities.TeamA, entities.Reporter{DiscordID: 3}},
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		already   int
	)
	for _, r := range reporters {
		wg.Add(1)
		go func(winner entities.TeamSide, reporter entities.Reporter) {
			defer wg.Done()
			_, err := f.ledger.RecordResult(ctx, f.matchID, winner, reporter)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, entities.ErrAlreadyRecorded):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(r.winner, r.reporter)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, len(reporters)-1, already)

	var total int64
	for _, id := range append(append([]int64{}, testTeamA...), testTeamB...) {
		p := f.player(t, id)
		assert.Equal(t, 1, p.Wins+p.Losses)
		total += p.Rating
	}
	assert.Zero(t, total)
}

func TestResultLedger_PersistenceFailure(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	playerRepo := new(testhelpers.MockPlayerRepository)
	matchRepo := new(testhelpers.MockMatchRepository)
	publisher := new(testhelpers.MockEventPublisher)
	ledger := NewResultLedger(playerRepo, matchRepo, publisher, DefaultTierTable(), nil)

	match := &entities.Match{ID: 5, TeamA: []int64{1}, TeamB: []int64{2}}
	matchRepo.On("GetByID", ctx, int64(5)).Return(match, nil)
	matchRepo.On("RecordWinner", ctx, int64(5), entities.TeamA, int64(1)).Return(errors.New("connection reset"))

	_, err := ledger.RecordResult(ctx, 5, entities.TeamA, entities.Reporter{DiscordID: 1})
	assert.ErrorIs(t, err, entities.ErrPersistenceFailure)
	playerRepo.AssertNotCalled(t, "ApplyMatchResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestResultLedger_LostCompareAndSet(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	playerRepo := new(testhelpers.MockPlayerRepository)
	matchRepo := new(testhelpers.MockMatchRepository)
	publisher := new(testhelpers.MockEventPublisher)
	ledger := NewResultLedger(playerRepo, matchRepo, publisher, DefaultTierTable(), nil)

	// the match looked unresolved but another reporter won the update
	match := &entities.Match{ID: 5, TeamA: []int64{1}, TeamB: []int64{2}}
	matchRepo.On("GetByID", ctx, int64(5)).Return(match, nil)
	matchRepo.On("RecordWinner", ctx, int64(5), entities.TeamB, int64(2)).Return(entities.ErrAlreadyRecorded)

	_, err := ledger.RecordResult(ctx, 5, entities.TeamB, entities.Reporter{DiscordID: 2})
	assert.ErrorIs(t, err, entities.ErrAlreadyRecorded)
	assert.NotErrorIs(t, err, entities.ErrPersistenceFailure)
	playerRepo.AssertNotCalled(t, "ApplyMatchResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
