package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MatchState is a stage of the match lifecycle
type MatchState string

const (
	StateDraining        MatchState = "draining"
	StateCaptainVote     MatchState = "captain_vote"
	StatePickStyleVote   MatchState = "pick_style_vote"
	StateDrafting        MatchState = "drafting"
	StateMapVote         MatchState = "map_vote"
	StateRoomCreatorVote MatchState = "room_creator_vote"
	StatePersisting      MatchState = "persisting"
	StateAwaitingResult  MatchState = "awaiting_result"
	StateResolved        MatchState = "resolved"
	StateAborted         MatchState = "aborted"
)

// MatchRequest starts a match from a drained queue
type MatchRequest struct {
	GuildID   int64
	QueueType string
	Entries   []entities.QueueEntry
	Initiator interfaces.Initiator
	Forced    bool
}

// MatchWriter persists a newly set up match
type MatchWriter interface {
	CreateMatch(ctx context.Context, match *entities.Match) error
}

// StateObserver is told about every state transition of a run
type StateObserver interface {
	StateChanged(run RunSnapshot, from, to MatchState)
}

// OrchestratorConfig holds the timings and map pool of the lifecycle
type OrchestratorConfig struct {
	VoteDuration      time.Duration
	PickTimeout       time.Duration
	ResultPromptDelay time.Duration
	// AbortCleanupDelay is how long channels of an aborted match are kept. 0 keeps them.
	AbortCleanupDelay time.Duration
	MapPool           []string
}

// MatchRun is the in-memory state of one match going through setup
type MatchRun struct {
	ID        string
	GuildID   int64
	QueueType string
	Players   []int64
	Names     map[int64]string
	Forced    bool
	StartedAt time.Time

	mu          sync.Mutex
	state       MatchState
	captainA    int64
	captainB    int64
	pickStyle   entities.PickStyle
	draft       entities.DraftResult
	mapName     string
	roomCreator int64
	match       *entities.Match
	channelID   int64
	voiceA      int64
	voiceB      int64
	err         error
}

// RunSnapshot is a read-only copy of a MatchRun
type RunSnapshot struct {
	ID          string           `json:"id"`
	GuildID     int64            `json:"guild_id"`
	QueueType   string           `json:"queue_type"`
	State       MatchState       `json:"state"`
	Players     []int64          `json:"players"`
	CaptainA    int64            `json:"captain_a,omitempty"`
	CaptainB    int64            `json:"captain_b,omitempty"`
	PickStyle   string           `json:"pick_style,omitempty"`
	TeamA       []int64          `json:"team_a,omitempty"`
	TeamB       []int64          `json:"team_b,omitempty"`
	MapName     string           `json:"map_name,omitempty"`
	RoomCreator int64            `json:"room_creator,omitempty"`
	MatchID     int64            `json:"match_id,omitempty"`
	ChannelID   int64            `json:"channel_id,omitempty"`
	Forced      bool             `json:"forced"`
	StartedAt   time.Time        `json:"started_at"`
	Error       string           `json:"error,omitempty"`
	Names       map[int64]string `json:"-"`
	Match       *entities.Match  `json:"-"`
}

// State returns the current state
func (r *MatchRun) State() MatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the abort cause, if any
func (r *MatchRun) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Match returns the persisted match once the run got past persisting
func (r *MatchRun) Match() *entities.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match
}

// Snapshot copies the run state
func (r *MatchRun) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := RunSnapshot{
		ID:          r.ID,
		GuildID:     r.GuildID,
		QueueType:   r.QueueType,
		State:       r.state,
		Players:     append([]int64(nil), r.Players...),
		CaptainA:    r.captainA,
		CaptainB:    r.captainB,
		PickStyle:   string(r.pickStyle),
		TeamA:       append([]int64(nil), r.draft.TeamA...),
		TeamB:       append([]int64(nil), r.draft.TeamB...),
		MapName:     r.mapName,
		RoomCreator: r.roomCreator,
		ChannelID:   r.channelID,
		Forced:      r.Forced,
		StartedAt:   r.StartedAt,
		Names:       r.Names,
		Match:       r.match,
	}
	if r.match != nil {
		s.MatchID = r.match.ID
	}
	if r.err != nil {
		s.Error = r.err.Error()
	}
	return s
}

func (r *MatchRun) channels() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for _, id := range []int64{r.channelID, r.voiceA, r.voiceB} {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *MatchRun) name(playerID int64) string {
	if n, ok := r.Names[playerID]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("<@%d>", playerID)
}

func (r *MatchRun) names(playerIDs []int64) []string {
	out := make([]string, len(playerIDs))
	for i, id := range playerIDs {
		out[i] = r.name(id)
	}
	return out
}

// MatchOrchestrator drives a drained group from captain vote to a persisted
// match awaiting its result
type MatchOrchestrator struct {
	transport interfaces.MatchTransport
	votes     *VoteCoordinator
	drafts    *TeamDraftEngine
	writer    MatchWriter
	rng       Randomizer
	metrics   interfaces.MatchMetrics
	observer  StateObserver
	cfg       OrchestratorConfig

	mu      sync.Mutex
	runs    map[string]*MatchRun
	byMatch map[int64]string

	sleep     func(ctx context.Context, d time.Duration) error
	afterFunc func(d time.Duration, f func())
	now       func() time.Time
}

// NewMatchOrchestrator creates an orchestrator. metrics may be nil.
func NewMatchOrchestrator(
	transport interfaces.MatchTransport,
	votes *VoteCoordinator,
	drafts *TeamDraftEngine,
	writer MatchWriter,
	rng Randomizer,
	metrics interfaces.MatchMetrics,
	cfg OrchestratorConfig,
) *MatchOrchestrator {
	return &MatchOrchestrator{
		transport: transport,
		votes:     votes,
		drafts:    drafts,
		writer:    writer,
		rng:       rng,
		metrics:   metricsOrNoop(metrics),
		cfg:       cfg,
		runs:      make(map[string]*MatchRun),
		byMatch:   make(map[int64]string),
		sleep:     sleepContext,
		afterFunc: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:       time.Now,
	}
}

// SetStateObserver registers an observer for state transitions
func (o *MatchOrchestrator) SetStateObserver(observer StateObserver) {
	o.observer = observer
}

// Run executes match setup. It blocks through every vote and draft turn and
// returns once the result prompt is posted or setup is aborted.
func (o *MatchOrchestrator) Run(ctx context.Context, req MatchRequest) (*MatchRun, error) {
	run := &MatchRun{
		ID:        uuid.NewString(),
		GuildID:   req.GuildID,
		QueueType: req.QueueType,
		Players:   entities.PlayerIDs(req.Entries),
		Names:     make(map[int64]string, len(req.Entries)),
		Forced:    req.Forced,
		StartedAt: o.now(),
		state:     StateDraining,
	}
	for _, e := range req.Entries {
		run.Names[e.PlayerID] = e.DisplayName
	}

	o.mu.Lock()
	o.runs[run.ID] = run
	o.mu.Unlock()

	o.metrics.RecordStateTransition(ctx, run.QueueType, string(StateDraining))
	log.WithFields(log.Fields{
		"runID":     run.ID,
		"guildID":   run.GuildID,
		"queueType": run.QueueType,
		"players":   len(run.Players),
		"forced":    run.Forced,
	}).Info("Match setup started")

	if err := o.setup(ctx, run); err != nil {
		o.abort(run, req.Initiator, err)
		return run, err
	}
	return run, nil
}

func (o *MatchOrchestrator) setup(ctx context.Context, run *MatchRun) error {
	if len(run.Players) < minForcedPlayers {
		return entities.ErrQueueCapacityUnmet
	}

	channelName := fmt.Sprintf("match-%s-%d", run.QueueType, 1000+o.rng.IntN(9000))
	channelID, err := o.transport.CreateMatchChannel(ctx, run.GuildID, channelName, run.Players)
	if err != nil {
		return fmt.Errorf("failed to create match channel: %w: %w", entities.ErrTransportOperationFailed, err)
	}
	run.mu.Lock()
	run.channelID = channelID
	run.mu.Unlock()

	if err := o.say(ctx, run, "Match found", fmt.Sprintf("**%s** match with %s", run.QueueType, strings.Join(run.names(run.Players), ", "))); err != nil {
		return err
	}

	o.transition(ctx, run, StateCaptainVote)
	captainVote, err := o.vote(ctx, run, "Vote for a captain", run.names(run.Players))
	if err != nil {
		return err
	}
	captainA := run.Players[captainVote.Index]
	rest := without(run.Players, captainA)
	captainB := pickOne(o.rng, rest)
	pool := without(rest, captainB)

	run.mu.Lock()
	run.captainA, run.captainB = captainA, captainB
	run.mu.Unlock()
	if err := o.say(ctx, run, "Captains", fmt.Sprintf("Team A: **%s**\nTeam B: **%s**", run.name(captainA), run.name(captainB))); err != nil {
		return err
	}

	o.transition(ctx, run, StatePickStyleVote)
	style := entities.PickStyleRandom
	if len(pool) > 1 {
		styleVote, err := o.vote(ctx, run, "How should teams be picked?", entities.PickStyleOptions())
		if err != nil {
			return err
		}
		style = entities.PickStyle(styleVote.Candidate)
	}
	run.mu.Lock()
	run.pickStyle = style
	run.mu.Unlock()

	o.transition(ctx, run, StateDrafting)
	var draft entities.DraftResult
	if style == entities.PickStyleCaptains {
		draft, err = o.drafts.CaptainPick(ctx, DraftRequest{
			CaptainA:    captainA,
			CaptainB:    captainB,
			Pool:        pool,
			TurnTimeout: o.cfg.PickTimeout,
		}, &draftPrompter{orchestrator: o, run: run})
		if err != nil {
			return err
		}
	} else {
		draft = o.drafts.RandomSplit(captainA, captainB, pool)
	}
	run.mu.Lock()
	run.draft = draft
	run.mu.Unlock()
	if err := o.say(ctx, run, "Teams", fmt.Sprintf("**Team A:** %s\n**Team B:** %s",
		strings.Join(run.names(draft.TeamA), ", "), strings.Join(run.names(draft.TeamB), ", "))); err != nil {
		return err
	}

	o.transition(ctx, run, StateMapVote)
	mapVote, err := o.vote(ctx, run, "Vote for the map", o.cfg.MapPool)
	if err != nil {
		return err
	}
	run.mu.Lock()
	run.mapName = mapVote.Candidate
	run.mu.Unlock()

	o.transition(ctx, run, StateRoomCreatorVote)
	creatorVote, err := o.vote(ctx, run, "Who creates the room?", run.names(run.Players))
	if err != nil {
		return err
	}
	roomCreator := run.Players[creatorVote.Index]
	run.mu.Lock()
	run.roomCreator = roomCreator
	run.mu.Unlock()

	o.transition(ctx, run, StatePersisting)
	if err := o.persist(ctx, run, draft, mapVote.Candidate, roomCreator); err != nil {
		return err
	}

	o.transition(ctx, run, StateAwaitingResult)
	match := run.Match()
	if err := o.sleep(ctx, o.cfg.ResultPromptDelay); err != nil {
		log.WithError(err).WithField("matchID", match.ID).Warn("Result prompt delay interrupted")
	}
	if _, err := o.transport.SendPrompt(ctx, run.channelID, interfaces.ResultPrompt{MatchID: match.ID}); err != nil {
		log.WithError(err).WithField("matchID", match.ID).Error("Failed to post result prompt")
	}
	return nil
}

func (o *MatchOrchestrator) persist(ctx context.Context, run *MatchRun, draft entities.DraftResult, mapName string, roomCreator int64) error {
	passphrase := GeneratePassphrase(o.rng)

	voiceA, err := o.transport.CreateVoiceChannel(ctx, run.GuildID, "Team A - "+mapName, draft.TeamA)
	if err != nil {
		return fmt.Errorf("failed to create team A voice channel: %w: %w", entities.ErrTransportOperationFailed, err)
	}
	run.mu.Lock()
	run.voiceA = voiceA
	run.mu.Unlock()

	voiceB, err := o.transport.CreateVoiceChannel(ctx, run.GuildID, "Team B - "+mapName, draft.TeamB)
	if err != nil {
		return fmt.Errorf("failed to create team B voice channel: %w: %w", entities.ErrTransportOperationFailed, err)
	}
	run.mu.Lock()
	run.voiceB = voiceB
	run.mu.Unlock()

	o.movePlayers(ctx, run, draft.TeamA, voiceA)
	o.movePlayers(ctx, run, draft.TeamB, voiceB)

	textChannel := run.channelID
	match := &entities.Match{
		GuildID:       run.GuildID,
		QueueType:     run.QueueType,
		TeamA:         draft.TeamA,
		TeamB:         draft.TeamB,
		MapName:       mapName,
		RoomCreatorID: roomCreator,
		Passphrase:    passphrase,
		TextChannelID: &textChannel,
		TeamAVoiceID:  &voiceA,
		TeamBVoiceID:  &voiceB,
	}
	if err := o.writer.CreateMatch(ctx, match); err != nil {
		return fmt.Errorf("failed to persist match: %w: %w", entities.ErrPersistenceFailure, err)
	}

	run.mu.Lock()
	run.match = match
	run.mu.Unlock()
	o.mu.Lock()
	o.byMatch[match.ID] = run.ID
	o.mu.Unlock()

	log.WithFields(log.Fields{
		"runID":   run.ID,
		"matchID": match.ID,
		"map":     mapName,
		"teamA":   draft.TeamA,
		"teamB":   draft.TeamB,
	}).Info("Match persisted")

	if _, err := o.transport.SendPrompt(ctx, run.channelID, interfaces.MatchReadyPrompt{Match: match, Names: run.Names}); err != nil {
		log.WithError(err).WithField("matchID", match.ID).Error("Failed to post match details")
	}
	return nil
}

func (o *MatchOrchestrator) movePlayers(ctx context.Context, run *MatchRun, players []int64, channelID int64) {
	for _, playerID := range players {
		if err := o.transport.MovePlayer(ctx, run.GuildID, playerID, channelID); err != nil {
			log.WithFields(log.Fields{
				"runID":     run.ID,
				"playerID":  playerID,
				"channelID": channelID,
				"error":     fmt.Errorf("%w: %w", entities.ErrTransportOperationFailed, err),
			}).Warn("Failed to move player to team voice channel")
		}
	}
}

func (o *MatchOrchestrator) vote(ctx context.Context, run *MatchRun, title string, candidates []string) (entities.VoteResult, error) {
	sessionID, deadline, err := o.votes.Open(VoteRequest{
		Title:      title,
		Candidates: candidates,
		Duration:   o.cfg.VoteDuration,
		Voters:     run.Players,
	})
	if err != nil {
		return entities.VoteResult{}, fmt.Errorf("failed to open vote %q: %w", title, err)
	}
	defer o.votes.Release(sessionID)

	if _, err := o.transport.SendPrompt(ctx, run.channelID, interfaces.VotePrompt{
		SessionID:  sessionID,
		Title:      title,
		Candidates: candidates,
		Deadline:   deadline,
	}); err != nil {
		return entities.VoteResult{}, fmt.Errorf("failed to post vote %q: %w: %w", title, entities.ErrTransportOperationFailed, err)
	}

	result, err := o.votes.Tally(ctx, sessionID)
	if err != nil {
		return entities.VoteResult{}, err
	}

	body := fmt.Sprintf("**%s** (%d of %d votes)", result.Candidate, result.Votes, result.TotalVotes)
	switch {
	case result.Fallback:
		body = fmt.Sprintf("Nobody voted, randomly chose **%s**", result.Candidate)
	case result.Tied:
		body += " after a random tie-break"
	}
	if err := o.say(ctx, run, title, body); err != nil {
		return entities.VoteResult{}, err
	}
	return result, nil
}

func (o *MatchOrchestrator) say(ctx context.Context, run *MatchRun, title, body string) error {
	if _, err := o.transport.SendPrompt(ctx, run.channelID, interfaces.TextPrompt{Title: title, Body: body}); err != nil {
		return fmt.Errorf("failed to post %q: %w: %w", title, entities.ErrTransportOperationFailed, err)
	}
	return nil
}

func (o *MatchOrchestrator) transition(ctx context.Context, run *MatchRun, to MatchState) {
	run.mu.Lock()
	from := run.state
	run.state = to
	run.mu.Unlock()

	log.WithFields(log.Fields{
		"runID": run.ID,
		"from":  from,
		"to":    to,
	}).Info("Match state changed")
	o.metrics.RecordStateTransition(ctx, run.QueueType, string(to))
	if o.observer != nil {
		o.observer.StateChanged(run.Snapshot(), from, to)
	}
}

// abort reports the failure and schedules release of whatever channels exist
func (o *MatchOrchestrator) abort(run *MatchRun, initiator interfaces.Initiator, cause error) {
	ctx := context.Background()

	run.mu.Lock()
	from := run.state
	run.state = StateAborted
	run.err = cause
	channelID := run.channelID
	run.mu.Unlock()

	o.mu.Lock()
	delete(o.runs, run.ID)
	o.mu.Unlock()

	o.metrics.RecordMatchAborted(ctx, run.QueueType, string(from))
	if o.observer != nil {
		o.observer.StateChanged(run.Snapshot(), from, StateAborted)
	}

	message := fmt.Sprintf("Match setup was aborted during %s: %v", strings.ReplaceAll(string(from), "_", " "), cause)
	reported := false
	if channelID != 0 {
		_, err := o.transport.SendPrompt(ctx, channelID, interfaces.TextPrompt{Title: "Match aborted", Body: message, IsError: true})
		reported = err == nil
	}
	if !reported {
		if err := o.transport.NotifyInitiator(ctx, initiator, message); err != nil {
			log.WithError(err).WithField("runID", run.ID).Error("Failed to report aborted match")
		}
	}

	orphans := run.channels()
	logger := log.WithFields(log.Fields{
		"runID":     run.ID,
		"guildID":   run.GuildID,
		"queueType": run.QueueType,
		"state":     from,
		"channels":  orphans,
	})
	logger.WithError(cause).Error("Match setup aborted")
	if len(orphans) == 0 {
		return
	}
	if o.cfg.AbortCleanupDelay <= 0 {
		logger.Warn("Aborted match left orphaned channels")
		return
	}

	logger.WithField("delay", o.cfg.AbortCleanupDelay).Warn("Scheduling release of aborted match channels")
	o.afterFunc(o.cfg.AbortCleanupDelay, func() {
		for _, id := range orphans {
			if err := o.transport.DeleteChannel(context.Background(), id); err != nil {
				logger.WithError(err).WithField("channelID", id).Warn("Failed to release orphaned channel")
			}
		}
	})
}

// MarkResolved moves a tracked run to Resolved once its result is recorded
func (o *MatchOrchestrator) MarkResolved(matchID int64) bool {
	o.mu.Lock()
	runID, ok := o.byMatch[matchID]
	run := o.runs[runID]
	delete(o.byMatch, matchID)
	delete(o.runs, runID)
	o.mu.Unlock()

	if !ok || run == nil {
		return false
	}
	o.transition(context.Background(), run, StateResolved)
	return true
}

// ActiveRuns returns snapshots of runs that are in setup or awaiting a result
func (o *MatchOrchestrator) ActiveRuns() []RunSnapshot {
	o.mu.Lock()
	runs := make([]*MatchRun, 0, len(o.runs))
	for _, run := range o.runs {
		runs = append(runs, run)
	}
	o.mu.Unlock()

	snapshots := make([]RunSnapshot, len(runs))
	for i, run := range runs {
		snapshots[i] = run.Snapshot()
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].StartedAt.Before(snapshots[j].StartedAt)
	})
	return snapshots
}

// ForgetStale drops runs that have been awaiting a result for longer than maxAge
func (o *MatchOrchestrator) ForgetStale(maxAge time.Duration) int {
	cutoff := o.now().Add(-maxAge)

	o.mu.Lock()
	defer o.mu.Unlock()

	forgotten := 0
	for id, run := range o.runs {
		if run.State() != StateAwaitingResult || !run.StartedAt.Before(cutoff) {
			continue
		}
		if match := run.Match(); match != nil {
			delete(o.byMatch, match.ID)
		}
		delete(o.runs, id)
		forgotten++
	}
	return forgotten
}

type draftPrompter struct {
	orchestrator *MatchOrchestrator
	run          *MatchRun
}

func (p *draftPrompter) TurnOpened(ctx context.Context, turn PickTurnInfo) {
	_, err := p.orchestrator.transport.SendPrompt(ctx, p.run.channelID, interfaces.PickTurnPrompt{
		TurnID:   turn.TurnID,
		Turn:     turn.Turn,
		Side:     turn.Side,
		Captain:  turn.Captain,
		Pool:     turn.Pool,
		Names:    p.run.Names,
		Deadline: turn.Deadline,
	})
	if err != nil {
		// the turn still resolves on timeout
		log.WithError(err).WithFields(log.Fields{
			"runID":  p.run.ID,
			"turnID": turn.TurnID,
		}).Warn("Failed to post pick prompt")
	}
}

func (p *draftPrompter) PlayerPicked(ctx context.Context, pick entities.DraftPick, remaining []int64) {
	body := fmt.Sprintf("**%s** picked **%s** for Team %s", p.run.name(pick.Captain), p.run.name(pick.PlayerID), pick.Side)
	if pick.Auto {
		body = fmt.Sprintf("Time ran out, **%s** was assigned to Team %s", p.run.name(pick.PlayerID), pick.Side)
	}
	if err := p.orchestrator.say(ctx, p.run, fmt.Sprintf("Pick %d", pick.Turn), body); err != nil {
		log.WithError(err).WithField("runID", p.run.ID).Warn("Failed to post pick")
	}
}

func without(ids []int64, exclude int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != exclude {
			out = append(out, id)
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
