package services

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"matchmaker/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDraftObserver struct {
	mu     sync.Mutex
	turns  []PickTurnInfo
	picks  []entities.DraftPick
	onTurn func(turn PickTurnInfo)
}

func (o *recordingDraftObserver) TurnOpened(ctx context.Context, turn PickTurnInfo) {
	o.mu.Lock()
	o.turns = append(o.turns, turn)
	hook := o.onTurn
	o.mu.Unlock()
	if hook != nil {
		hook(turn)
	}
}

func (o *recordingDraftObserver) PlayerPicked(ctx context.Context, pick entities.DraftPick, remaining []int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.picks = append(o.picks, pick)
}

func expiredTimer(time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}

func neverTimer(time.Duration) <-chan time.Time {
	return nil
}

func assertValidDraft(t *testing.T, result entities.DraftResult, captainA, captainB int64, pool []int64) {
	t.Helper()

	require.NotEmpty(t, result.TeamA)
	require.NotEmpty(t, result.TeamB)
	assert.Equal(t, captainA, result.TeamA[0])
	assert.Equal(t, captainB, result.TeamB[0])

	seen := make(map[int64]entities.TeamSide)
	for _, id := range result.TeamA {
		seen[id] = entities.TeamA
	}
	for _, id := range result.TeamB {
		_, dup := seen[id]
		assert.False(t, dup, "player %d is on both teams", id)
		seen[id] = entities.TeamB
	}

	assert.Len(t, seen, len(pool)+2)
	for _, id := range pool {
		assert.Contains(t, seen, id)
	}

	diff := len(result.TeamA) - len(result.TeamB)
	assert.True(t, diff >= -1 && diff <= 1, "team sizes %d and %d", len(result.TeamA), len(result.TeamB))
}

func TestTeamDraftEngine_RandomSplit(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(5), nil)

	for size := 0; size <= 9; size++ {
		pool := make([]int64, size)
		for i := range pool {
			pool[i] = int64(100 + i)
		}
		original := slices.Clone(pool)

		result := engine.RandomSplit(1, 2, pool)

		assertValidDraft(t, result, 1, 2, pool)
		assert.Equal(t, original, pool, "input pool must not be reordered")
		assert.Len(t, result.Picks, size)
		for i, pick := range result.Picks {
			expected := entities.TeamA
			if i%2 == 1 {
				expected = entities.TeamB
			}
			assert.Equal(t, expected, pick.Side)
			assert.True(t, pick.Auto)
		}
	}
}

func TestTeamDraftEngine_RandomSplitEmptyPool(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(5), nil)
	pool := []int64{}

	result := engine.RandomSplit(1, 2, pool)

	assert.Equal(t, []int64{1}, result.TeamA)
	assert.Equal(t, []int64{2}, result.TeamB)
	assert.Empty(t, result.Picks)
	assert.Empty(t, pool)
}

func TestTeamDraftEngine_RandomSplitIsShuffled(t *testing.T) {
	pool := []int64{10, 11, 12, 13, 14, 15}
	firstPicks := make(map[int64]bool)
	for seed := uint64(0); seed < 100; seed++ {
		engine := NewTeamDraftEngine(NewSeededRandomizer(seed), nil)
		result := engine.RandomSplit(1, 2, pool)
		firstPicks[result.TeamA[1]] = true
	}
	assert.Len(t, firstPicks, len(pool))
}

func TestTeamDraftEngine_CaptainPickAllTimeouts(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(8), nil)
	engine.after = expiredTimer
	observer := &recordingDraftObserver{}

	pool := []int64{10, 11, 12, 13, 14, 15}
	result, err := engine.CaptainPick(context.Background(), DraftRequest{
		CaptainA:    1,
		CaptainB:    2,
		Pool:        pool,
		TurnTimeout: time.Minute,
	}, observer)
	require.NoError(t, err)

	assertValidDraft(t, result, 1, 2, pool)
	assert.Len(t, result.TeamA, 4)
	assert.Len(t, result.TeamB, 4)

	require.Len(t, result.Picks, 6)
	expectedSides := []entities.TeamSide{entities.TeamA, entities.TeamB, entities.TeamA, entities.TeamB, entities.TeamA, entities.TeamB}
	for i, pick := range result.Picks {
		assert.Equal(t, expectedSides[i], pick.Side)
		assert.Equal(t, i+1, pick.Turn)
		assert.True(t, pick.Auto)
	}

	require.Len(t, observer.turns, 6)
	for i, turn := range observer.turns {
		assert.Len(t, turn.Pool, 6-i)
		if turn.Side == entities.TeamA {
			assert.Equal(t, int64(1), turn.Captain)
		} else {
			assert.Equal(t, int64(2), turn.Captain)
		}
	}
	assert.Len(t, observer.picks, 6)
	assert.Zero(t, engine.OpenTurns())
}

func TestTeamDraftEngine_CaptainPickTimeoutsAreRandom(t *testing.T) {
	pool := []int64{10, 11, 12, 13, 14, 15}
	firstPicks := make(map[int64]int)
	for seed := uint64(0); seed < 120; seed++ {
		engine := NewTeamDraftEngine(NewSeededRandomizer(seed), nil)
		engine.after = expiredTimer
		result, err := engine.CaptainPick(context.Background(), DraftRequest{CaptainA: 1, CaptainB: 2, Pool: pool, TurnTimeout: time.Second}, nil)
		require.NoError(t, err)
		firstPicks[result.Picks[0].PlayerID]++
	}
	assert.Len(t, firstPicks, len(pool))
}

func TestTeamDraftEngine_CaptainPickResolvedByCaptains(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(1), nil)
	engine.after = neverTimer

	observer := &recordingDraftObserver{}
	observer.onTurn = func(turn PickTurnInfo) {
		// always take the last player offered
		assert.True(t, engine.ResolvePick(turn.TurnID, turn.Captain, len(turn.Pool)-1))
	}

	pool := []int64{10, 11, 12, 13, 14}
	result, err := engine.CaptainPick(context.Background(), DraftRequest{CaptainA: 1, CaptainB: 2, Pool: pool, TurnTimeout: time.Minute}, observer)
	require.NoError(t, err)

	assertValidDraft(t, result, 1, 2, pool)
	assert.Equal(t, []int64{1, 14, 12, 10}, result.TeamA)
	assert.Equal(t, []int64{2, 13, 11}, result.TeamB)
	for _, pick := range result.Picks {
		assert.False(t, pick.Auto)
	}
}

func TestTeamDraftEngine_ResolvePickRejections(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(1), nil)
	engine.after = neverTimer

	var staleTurn string
	observer := &recordingDraftObserver{}
	observer.onTurn = func(turn PickTurnInfo) {
		other := int64(2)
		if turn.Captain == 2 {
			other = 1
		}
		assert.False(t, engine.ResolvePick(turn.TurnID, other, 0), "foreign captain")
		assert.False(t, engine.ResolvePick(turn.TurnID, turn.Captain, len(turn.Pool)), "position out of range")
		assert.False(t, engine.ResolvePick(turn.TurnID, turn.Captain, -1), "negative position")
		assert.False(t, engine.ResolvePick("nope", turn.Captain, 0), "unknown turn")
		if staleTurn != "" {
			assert.False(t, engine.ResolvePick(staleTurn, 1, 0), "turn already resolved")
		}

		assert.True(t, engine.ResolvePick(turn.TurnID, turn.Captain, 0))
		assert.False(t, engine.ResolvePick(turn.TurnID, turn.Captain, 0), "second pick in one turn")
		staleTurn = turn.TurnID
	}

	pool := []int64{10, 11, 12}
	result, err := engine.CaptainPick(context.Background(), DraftRequest{CaptainA: 1, CaptainB: 2, Pool: pool, TurnTimeout: time.Minute}, observer)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 10, 12}, result.TeamA)
	assert.Equal(t, []int64{2, 11}, result.TeamB)
	assert.False(t, engine.ResolvePick(staleTurn, 1, 0), "late pick after draft")
}

func TestTeamDraftEngine_CaptainPickInterrupted(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(1), nil)
	engine.after = neverTimer

	ctx, cancel := context.WithCancel(context.Background())
	observer := &recordingDraftObserver{onTurn: func(PickTurnInfo) { cancel() }}

	_, err := engine.CaptainPick(ctx, DraftRequest{CaptainA: 1, CaptainB: 2, Pool: []int64{10, 11}, TurnTimeout: time.Minute}, observer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, engine.OpenTurns())
}

func TestTeamDraftEngine_CaptainPickEmptyPool(t *testing.T) {
	engine := NewTeamDraftEngine(NewSeededRandomizer(1), nil)
	result, err := engine.CaptainPick(context.Background(), DraftRequest{CaptainA: 1, CaptainB: 2, TurnTimeout: time.Minute}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, result.TeamA)
	assert.Equal(t, []int64{2}, result.TeamB)
}
