package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// VoteRequest describes a vote session to open
type VoteRequest struct {
	Title      string
	Candidates []string
	Duration   time.Duration
	// Voters restricts who may vote. Empty means anyone.
	Voters []int64
}

type voteSession struct {
	id         string
	title      string
	candidates []string
	eligible   map[int64]struct{}
	deadline   time.Time
	expired    chan struct{}

	mu    sync.Mutex
	votes map[int64]int

	tallyOnce sync.Once
	result    entities.VoteResult
}

func (s *voteSession) isClosed() bool {
	select {
	case <-s.expired:
		return true
	default:
		return false
	}
}

// VoteCoordinator runs timed plurality votes
type VoteCoordinator struct {
	mu       sync.Mutex
	sessions map[string]*voteSession

	rng     Randomizer
	metrics interfaces.MatchMetrics
	after   func(time.Duration) <-chan time.Time
	now     func() time.Time
}

// NewVoteCoordinator creates a vote coordinator. metrics may be nil.
func NewVoteCoordinator(rng Randomizer, metrics interfaces.MatchMetrics) *VoteCoordinator {
	return &VoteCoordinator{
		sessions: make(map[string]*voteSession),
		rng:      rng,
		metrics:  metricsOrNoop(metrics),
		after:    time.After,
		now:      time.Now,
	}
}

// Open starts a vote session. The deadline timer starts immediately.
func (c *VoteCoordinator) Open(req VoteRequest) (string, time.Time, error) {
	if len(req.Candidates) == 0 {
		return "", time.Time{}, entities.ErrNoCandidates
	}
	if req.Duration <= 0 {
		return "", time.Time{}, fmt.Errorf("vote duration must be positive, got %s", req.Duration)
	}

	session := &voteSession{
		id:         uuid.NewString(),
		title:      req.Title,
		candidates: append([]string(nil), req.Candidates...),
		deadline:   c.now().Add(req.Duration),
		expired:    make(chan struct{}),
		votes:      make(map[int64]int),
	}
	if len(req.Voters) > 0 {
		session.eligible = make(map[int64]struct{}, len(req.Voters))
		for _, id := range req.Voters {
			session.eligible[id] = struct{}{}
		}
	}

	timer := c.after(req.Duration)
	go func() {
		<-timer
		close(session.expired)
	}()

	c.mu.Lock()
	c.sessions[session.id] = session
	c.mu.Unlock()

	log.WithFields(log.Fields{
		"sessionID":  session.id,
		"title":      session.title,
		"candidates": len(session.candidates),
		"deadline":   session.deadline,
	}).Debug("Vote session opened")

	return session.id, session.deadline, nil
}

// Cast records or replaces a voter's choice. It returns false when the vote
// was ignored: unknown or closed session, invalid index or ineligible voter.
func (c *VoteCoordinator) Cast(sessionID string, voterID int64, index int) bool {
	session := c.get(sessionID)
	if session == nil || session.isClosed() {
		return false
	}
	if index < 0 || index >= len(session.candidates) {
		return false
	}
	if session.eligible != nil {
		if _, ok := session.eligible[voterID]; !ok {
			return false
		}
	}

	session.mu.Lock()
	session.votes[voterID] = index
	session.mu.Unlock()

	c.metrics.RecordVoteCast(context.Background())
	return true
}

// Tally waits for the session deadline and returns the winner. The first call
// computes the result, later calls return the cached one. ctx only cuts the
// wait short on shutdown.
func (c *VoteCoordinator) Tally(ctx context.Context, sessionID string) (entities.VoteResult, error) {
	session := c.get(sessionID)
	if session == nil {
		return entities.VoteResult{}, entities.ErrSessionNotFound
	}

	select {
	case <-session.expired:
	case <-ctx.Done():
		return entities.VoteResult{}, fmt.Errorf("vote %s interrupted: %w", sessionID, ctx.Err())
	}

	session.tallyOnce.Do(func() {
		session.result = c.count(session)
		log.WithFields(log.Fields{
			"sessionID": session.id,
			"title":     session.title,
			"winner":    session.result.Candidate,
			"votes":     session.result.Votes,
			"total":     session.result.TotalVotes,
			"tied":      session.result.Tied,
			"fallback":  session.result.Fallback,
		}).Info("Vote session tallied")
	})
	return session.result, nil
}

func (c *VoteCoordinator) count(session *voteSession) entities.VoteResult {
	session.mu.Lock()
	counts := make([]int, len(session.candidates))
	for _, idx := range session.votes {
		counts[idx]++
	}
	total := len(session.votes)
	session.mu.Unlock()

	result := entities.VoteResult{SessionID: session.id, TotalVotes: total}

	if total == 0 {
		// nobody voted: draw from the whole candidate list
		result.Index = c.rng.IntN(len(session.candidates))
		result.Fallback = true
	} else {
		best := 0
		var leaders []int
		for idx, n := range counts {
			switch {
			case n > best:
				best = n
				leaders = []int{idx}
			case n == best:
				leaders = append(leaders, idx)
			}
		}
		result.Index = pickOne(c.rng, leaders)
		result.Tied = len(leaders) > 1
	}

	result.Candidate = session.candidates[result.Index]
	result.Votes = counts[result.Index]
	return result
}

// Release forgets a session. Casts against it are ignored afterwards.
func (c *VoteCoordinator) Release(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}

// ReleaseStale forgets sessions whose deadline passed more than grace ago
func (c *VoteCoordinator) ReleaseStale(grace time.Duration) int {
	cutoff := c.now().Add(-grace)

	c.mu.Lock()
	defer c.mu.Unlock()

	released := 0
	for id, session := range c.sessions {
		if session.deadline.Before(cutoff) {
			delete(c.sessions, id)
			released++
		}
	}
	return released
}

// Info describes an open session
func (c *VoteCoordinator) Info(sessionID string) (entities.VoteInfo, bool) {
	session := c.get(sessionID)
	if session == nil {
		return entities.VoteInfo{}, false
	}
	return entities.VoteInfo{
		SessionID:  session.id,
		Title:      session.title,
		Candidates: append([]string(nil), session.candidates...),
		Deadline:   session.deadline,
	}, true
}

// OpenSessions returns the number of tracked sessions
func (c *VoteCoordinator) OpenSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

func (c *VoteCoordinator) get(sessionID string) *voteSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID]
}
