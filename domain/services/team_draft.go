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

// DraftRequest is the input to a captain draft
type DraftRequest struct {
	CaptainA    int64
	CaptainB    int64
	Pool        []int64
	TurnTimeout time.Duration
}

// PickTurnInfo describes an open draft turn
type PickTurnInfo struct {
	TurnID   string
	Turn     int
	Side     entities.TeamSide
	Captain  int64
	Pool     []int64
	Deadline time.Time
}

// DraftObserver is notified as the draft progresses so prompts can be rendered
type DraftObserver interface {
	TurnOpened(ctx context.Context, turn PickTurnInfo)
	PlayerPicked(ctx context.Context, pick entities.DraftPick, remaining []int64)
}

type pickTurn struct {
	captain  int64
	poolSize int
	picks    chan int
	once     sync.Once
}

// claim consumes the turn. Only the first caller gets true.
func (t *pickTurn) claim(fn func()) bool {
	claimed := false
	t.once.Do(func() {
		claimed = true
		fn()
	})
	return claimed
}

// TeamDraftEngine splits a pool of players between two captains
type TeamDraftEngine struct {
	mu    sync.Mutex
	turns map[string]*pickTurn

	rng     Randomizer
	metrics interfaces.MatchMetrics
	after   func(time.Duration) <-chan time.Time
	now     func() time.Time
}

// NewTeamDraftEngine creates a draft engine. metrics may be nil.
func NewTeamDraftEngine(rng Randomizer, metrics interfaces.MatchMetrics) *TeamDraftEngine {
	return &TeamDraftEngine{
		turns:   make(map[string]*pickTurn),
		rng:     rng,
		metrics: metricsOrNoop(metrics),
		after:   time.After,
		now:     time.Now,
	}
}

// RandomSplit shuffles the pool and deals it out alternately starting with team A
func (e *TeamDraftEngine) RandomSplit(captainA, captainB int64, pool []int64) entities.DraftResult {
	shuffled := append([]int64(nil), pool...)
	e.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	result := entities.DraftResult{
		TeamA: []int64{captainA},
		TeamB: []int64{captainB},
	}
	for i, playerID := range shuffled {
		side, captain := entities.TeamA, captainA
		if i%2 == 1 {
			side, captain = entities.TeamB, captainB
		}
		result.Assign(side, entities.DraftPick{Turn: i + 1, Side: side, Captain: captain, PlayerID: playerID, Auto: true})
	}
	return result
}

// CaptainPick runs alternating pick turns starting with captain A. A turn that
// times out assigns a random remaining player.
func (e *TeamDraftEngine) CaptainPick(ctx context.Context, req DraftRequest, observer DraftObserver) (entities.DraftResult, error) {
	if req.TurnTimeout <= 0 {
		return entities.DraftResult{}, fmt.Errorf("pick timeout must be positive, got %s", req.TurnTimeout)
	}

	remaining := append([]int64(nil), req.Pool...)
	result := entities.DraftResult{
		TeamA: []int64{req.CaptainA},
		TeamB: []int64{req.CaptainB},
	}

	side := entities.TeamA
	for turn := 1; len(remaining) > 0; turn++ {
		captain := req.CaptainA
		if side == entities.TeamB {
			captain = req.CaptainB
		}

		position, auto, err := e.runTurn(ctx, turn, side, captain, remaining, req.TurnTimeout, observer)
		if err != nil {
			return result, err
		}

		pick := entities.DraftPick{Turn: turn, Side: side, Captain: captain, PlayerID: remaining[position], Auto: auto}
		remaining = append(remaining[:position:position], remaining[position+1:]...)
		result.Assign(side, pick)

		if observer != nil {
			observer.PlayerPicked(ctx, pick, append([]int64(nil), remaining...))
		}
		side = side.Opponent()
	}

	return result, nil
}

func (e *TeamDraftEngine) runTurn(ctx context.Context, turnNumber int, side entities.TeamSide, captain int64, pool []int64, timeoutAfter time.Duration, observer DraftObserver) (int, bool, error) {
	turnID := uuid.NewString()
	turn := &pickTurn{
		captain:  captain,
		poolSize: len(pool),
		picks:    make(chan int, 1),
	}

	e.mu.Lock()
	e.turns[turnID] = turn
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.turns, turnID)
		e.mu.Unlock()
	}()

	deadline := e.now().Add(timeoutAfter)
	timeout := e.after(timeoutAfter)
	if observer != nil {
		observer.TurnOpened(ctx, PickTurnInfo{
			TurnID:   turnID,
			Turn:     turnNumber,
			Side:     side,
			Captain:  captain,
			Pool:     append([]int64(nil), pool...),
			Deadline: deadline,
		})
	}

	select {
	case position := <-turn.picks:
		return position, false, nil
	case <-timeout:
		if !turn.claim(func() {}) {
			// a pick landed at the deadline
			return <-turn.picks, false, nil
		}
		e.metrics.RecordPickTimeout(ctx)
		position := e.rng.IntN(len(pool))
		log.WithFields(log.Fields{
			"turnID":  turnID,
			"turn":    turnNumber,
			"captain": captain,
			"player":  pool[position],
		}).Info("Pick turn timed out, assigning random player")
		return position, true, nil
	case <-ctx.Done():
		turn.claim(func() {})
		return 0, false, fmt.Errorf("draft interrupted: %w", ctx.Err())
	}
}

// ResolvePick completes an open turn. Only the first valid pick from the
// turn's captain is accepted; everything else returns false.
func (e *TeamDraftEngine) ResolvePick(turnID string, captainID int64, position int) bool {
	e.mu.Lock()
	turn := e.turns[turnID]
	e.mu.Unlock()

	if turn == nil || turn.captain != captainID {
		return false
	}
	if position < 0 || position >= turn.poolSize {
		return false
	}
	return turn.claim(func() {
		turn.picks <- position
	})
}

// OpenTurns returns the number of unresolved turns
func (e *TeamDraftEngine) OpenTurns() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.turns)
}
