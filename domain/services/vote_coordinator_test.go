package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"matchmaker/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTimer hands out deadline channels that only fire when expire is called
type manualTimer struct {
	mu       sync.Mutex
	channels []chan time.Time
}

func (m *manualTimer) after(time.Duration) <-chan time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan time.Time)
	m.channels = append(m.channels, ch)
	return ch
}

// expire fires every deadline handed out so far
func (m *manualTimer) expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.channels {
		close(ch)
	}
	m.channels = nil
}

func newTestVoteCoordinator(seed uint64) (*VoteCoordinator, *manualTimer) {
	timer := &manualTimer{}
	coordinator := NewVoteCoordinator(NewSeededRandomizer(seed), nil)
	coordinator.after = timer.after
	return coordinator, timer
}

func openTestVote(t *testing.T, c *VoteCoordinator, candidates []string, voters ...int64) string {
	t.Helper()
	sessionID, _, err := c.Open(VoteRequest{
		Title:      "test vote",
		Candidates: candidates,
		Duration:   30 * time.Second,
		Voters:     voters,
	})
	require.NoError(t, err)
	return sessionID
}

func TestVoteCoordinator_Open(t *testing.T) {
	c, _ := newTestVoteCoordinator(1)

	t.Run("no candidates", func(t *testing.T) {
		_, _, err := c.Open(VoteRequest{Title: "empty", Duration: time.Second})
		assert.ErrorIs(t, err, entities.ErrNoCandidates)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		_, _, err := c.Open(VoteRequest{Title: "bad", Candidates: []string{"a"}})
		assert.Error(t, err)
	})

	t.Run("deadline is duration from now", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		sessionID, deadline, err := c.Open(VoteRequest{Title: "map", Candidates: []string{"a", "b"}, Duration: 30 * time.Second})
		require.NoError(t, err)
		assert.Equal(t, now.Add(30*time.Second), deadline)

		info, ok := c.Info(sessionID)
		require.True(t, ok)
		assert.Equal(t, []string{"a", "b"}, info.Candidates)
	})
}

func TestVoteCoordinator_Plurality(t *testing.T) {
	c, timer := newTestVoteCoordinator(1)
	candidates := []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"}
	sessionID := openTestVote(t, c, candidates)

	// three votes for P1, two for P2
	for _, voter := range []int64{1, 2, 3} {
		assert.True(t, c.Cast(sessionID, voter, 0))
	}
	for _, voter := range []int64{4, 5} {
		assert.True(t, c.Cast(sessionID, voter, 1))
	}
	timer.expire()

	result, err := c.Tally(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "P1", result.Candidate)
	assert.Equal(t, 0, result.Index)
	assert.Equal(t, 3, result.Votes)
	assert.Equal(t, 5, result.TotalVotes)
	assert.False(t, result.Tied)
	assert.False(t, result.Fallback)
}

func TestVoteCoordinator_RevoteOverwrites(t *testing.T) {
	c, timer := newTestVoteCoordinator(1)
	sessionID := openTestVote(t, c, []string{"Urban", "Iraq"})

	assert.True(t, c.Cast(sessionID, 10, 0))
	assert.True(t, c.Cast(sessionID, 10, 1))
	timer.expire()

	result, err := c.Tally(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "Iraq", result.Candidate)
	assert.Equal(t, 1, result.Votes)
	assert.Equal(t, 1, result.TotalVotes)
}

func TestVoteCoordinator_IgnoredCasts(t *testing.T) {
	c, timer := newTestVoteCoordinator(1)
	sessionID := openTestVote(t, c, []string{"a", "b"}, 1, 2)

	assert.False(t, c.Cast(sessionID, 1, -1), "negative index")
	assert.False(t, c.Cast(sessionID, 1, 2), "index out of range")
	assert.False(t, c.Cast(sessionID, 3, 0), "voter outside the match")
	assert.False(t, c.Cast("unknown", 1, 0), "unknown session")

	timer.expire()
	_, err := c.Tally(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, c.Cast(sessionID, 1, 0), "closed session")

	c.Release(sessionID)
	assert.False(t, c.Cast(sessionID, 1, 0), "released session")
}

func TestVoteCoordinator_TallyIsCached(t *testing.T) {
	c, timer := newTestVoteCoordinator(3)
	sessionID := openTestVote(t, c, []string{"a", "b", "c", "d"})
	timer.expire()

	first, err := c.Tally(context.Background(), sessionID)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Tally(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestVoteCoordinator_TieBreak(t *testing.T) {
	seen := make(map[string]int)
	for seed := uint64(0); seed < 200; seed++ {
		c, timer := newTestVoteCoordinator(seed)
		sessionID := openTestVote(t, c, entities.PickStyleOptions())
		c.Cast(sessionID, 1, 0)
		c.Cast(sessionID, 2, 1)
		timer.expire()

		result, err := c.Tally(context.Background(), sessionID)
		require.NoError(t, err)
		assert.True(t, result.Tied)
		assert.Equal(t, 1, result.Votes)
		seen[result.Candidate]++
	}

	assert.Len(t, seen, 2)
	for candidate, n := range seen {
		assert.Greater(t, n, 60, "tie-break rarely chose %s", candidate)
	}
}

func TestVoteCoordinator_TieOnlyAmongLeaders(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		c, timer := newTestVoteCoordinator(seed)
		sessionID := openTestVote(t, c, []string{"a", "b", "c", "d"})
		c.Cast(sessionID, 1, 1)
		c.Cast(sessionID, 2, 1)
		c.Cast(sessionID, 3, 3)
		c.Cast(sessionID, 4, 3)
		c.Cast(sessionID, 5, 0)
		timer.expire()

		result, err := c.Tally(context.Background(), sessionID)
		require.NoError(t, err)
		assert.Contains(t, []string{"b", "d"}, result.Candidate)
	}
}

func TestVoteCoordinator_NoVotesFallback(t *testing.T) {
	candidates := []string{"Urban", "Air Force", "Sandstorm"}
	c, timer := newTestVoteCoordinator(11)

	const sessions = 3000
	ids := make([]string, sessions)
	for i := range ids {
		ids[i] = openTestVote(t, c, candidates)
	}
	timer.expire()

	counts := make(map[string]int)
	for _, id := range ids {
		result, err := c.Tally(context.Background(), id)
		require.NoError(t, err)
		require.True(t, result.Fallback)
		require.Contains(t, candidates, result.Candidate)
		assert.Zero(t, result.TotalVotes)
		counts[result.Candidate]++
	}

	for _, candidate := range candidates {
		assert.InDelta(t, sessions/len(candidates), counts[candidate], 150, "candidate %s", candidate)
	}
}

func TestVoteCoordinator_TallyWaitsForDeadline(t *testing.T) {
	c, timer := newTestVoteCoordinator(1)
	sessionID := openTestVote(t, c, []string{"a", "b"})

	done := make(chan entities.VoteResult, 1)
	go func() {
		result, _ := c.Tally(context.Background(), sessionID)
		done <- result
	}()

	select {
	case <-done:
		t.Fatal("tally returned before the deadline")
	case <-time.After(50 * time.Millisecond):
	}

	c.Cast(sessionID, 1, 1)
	timer.expire()

	select {
	case result := <-done:
		assert.Equal(t, "b", result.Candidate)
	case <-time.After(2 * time.Second):
		t.Fatal("tally did not return after the deadline")
	}
}

func TestVoteCoordinator_TallyErrors(t *testing.T) {
	c, _ := newTestVoteCoordinator(1)

	t.Run("unknown session", func(t *testing.T) {
		_, err := c.Tally(context.Background(), "missing")
		assert.ErrorIs(t, err, entities.ErrSessionNotFound)
	})

	t.Run("shutdown", func(t *testing.T) {
		sessionID := openTestVote(t, c, []string{"a"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Tally(ctx, sessionID)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestVoteCoordinator_RealTimer(t *testing.T) {
	c := NewVoteCoordinator(NewSeededRandomizer(1), nil)
	sessionID, _, err := c.Open(VoteRequest{Title: "quick", Candidates: []string{"only"}, Duration: 20 * time.Millisecond})
	require.NoError(t, err)
	assert.True(t, c.Cast(sessionID, 1, 0))

	result, err := c.Tally(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "only", result.Candidate)
	assert.Equal(t, 1, result.Votes)
}

func TestVoteCoordinator_ReleaseStale(t *testing.T) {
	c, _ := newTestVoteCoordinator(1)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	openTestVote(t, c, []string{"a"})
	openTestVote(t, c, []string{"b"})
	assert.Equal(t, 2, c.OpenSessions())

	c.now = func() time.Time { return start.Add(time.Minute) }
	assert.Equal(t, 0, c.ReleaseStale(5*time.Minute))

	c.now = func() time.Time { return start.Add(time.Hour) }
	assert.Equal(t, 2, c.ReleaseStale(5*time.Minute))
	assert.Equal(t, 0, c.OpenSessions())
}
