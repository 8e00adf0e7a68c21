package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"matchmaker/domain/entities"
	"matchmaker/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// minForcedPlayers is one captain per team
const minForcedPlayers = 2

// QueueManager holds the waiting players of one guild across all queue types.
// A single mutex guards every queue so moving a player between types and
// join-and-drain are each one critical section.
type QueueManager struct {
	mu     sync.Mutex
	types  map[string]entities.QueueType
	queues map[string][]entities.QueueEntry

	metrics interfaces.MatchMetrics
	now     func() time.Time
}

// NewQueueManager creates an empty queue set for the given queue types
func NewQueueManager(types map[string]entities.QueueType, metrics interfaces.MatchMetrics) *QueueManager {
	queues := make(map[string][]entities.QueueEntry, len(types))
	for name := range types {
		queues[name] = nil
	}
	return &QueueManager{
		types:   types,
		queues:  queues,
		metrics: metricsOrNoop(metrics),
		now:     time.Now,
	}
}

// Join adds the player to a queue, removing them from any other queue first.
// When the join fills the queue every entry is drained and returned in
// JoinResult.Drained; only that caller ever sees the snapshot.
func (q *QueueManager) Join(entry entities.QueueEntry) (*entities.JoinResult, error) {
	queueType, ok := q.types[entry.QueueType]
	if !ok {
		return nil, entities.ErrUnknownQueueType
	}
	if entry.JoinedAt.IsZero() {
		entry.JoinedAt = q.now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	result := &entities.JoinResult{QueueType: queueType.Name, Required: queueType.TotalPlayers}

	if current, idx, found := q.locate(entry.PlayerID); found {
		if current == queueType.Name {
			// already waiting here; keep their place
			result.Count = len(q.queues[current])
			return result, nil
		}
		q.removeAt(current, idx)
		result.PreviousQueue = current
	}

	q.queues[queueType.Name] = append(q.queues[queueType.Name], entry)
	result.Count = len(q.queues[queueType.Name])
	q.metrics.RecordQueueJoin(context.Background(), queueType.Name)

	// the queue drains the moment it reaches the required size, so it never grows past it
	if result.Count == queueType.TotalPlayers {
		result.Drained = q.takeAll(queueType.Name)
		log.WithFields(log.Fields{
			"queueType": queueType.Name,
			"players":   len(result.Drained),
		}).Info("Queue filled")
	}

	return result, nil
}

// Leave removes the player from whichever queue they are in and returns its
// name. Without an entry it is a no-op unless requireEntry is set.
func (q *QueueManager) Leave(playerID int64, requireEntry bool) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	current, idx, found := q.locate(playerID)
	if !found {
		if requireEntry {
			return "", entities.ErrNotInQueue
		}
		return "", nil
	}
	q.removeAt(current, idx)
	return current, nil
}

// Drain empties the queue and returns its entries only if it is exactly full
func (q *QueueManager) Drain(queueTypeName string) ([]entities.QueueEntry, bool) {
	queueType, ok := q.types[queueTypeName]
	if !ok {
		return nil, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queues[queueTypeName]) != queueType.TotalPlayers {
		return nil, false
	}
	return q.takeAll(queueTypeName), true
}

// ForceDrain empties the queue regardless of its fill level as long as both
// teams can get a captain
func (q *QueueManager) ForceDrain(queueTypeName string) ([]entities.QueueEntry, error) {
	if _, ok := q.types[queueTypeName]; !ok {
		return nil, entities.ErrUnknownQueueType
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.queues[queueTypeName]) < minForcedPlayers {
		return nil, entities.ErrQueueCapacityUnmet
	}
	return q.takeAll(queueTypeName), nil
}

// Snapshot returns a copy of the entries of one queue
func (q *QueueManager) Snapshot(queueTypeName string) ([]entities.QueueEntry, error) {
	if _, ok := q.types[queueTypeName]; !ok {
		return nil, entities.ErrUnknownQueueType
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]entities.QueueEntry(nil), q.queues[queueTypeName]...), nil
}

// QueueOf returns the queue type the player is waiting in
func (q *QueueManager) QueueOf(playerID int64) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	name, _, found := q.locate(playerID)
	return name, found
}

// Counts returns the number of waiting players per queue type
func (q *QueueManager) Counts() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[string]int, len(q.queues))
	for name, entries := range q.queues {
		counts[name] = len(entries)
	}
	return counts
}

// QueueType looks up a configured queue type
func (q *QueueManager) QueueType(name string) (entities.QueueType, bool) {
	t, ok := q.types[name]
	return t, ok
}

func (q *QueueManager) locate(playerID int64) (string, int, bool) {
	for name, entries := range q.queues {
		for i, e := range entries {
			if e.PlayerID == playerID {
				return name, i, true
			}
		}
	}
	return "", 0, false
}

func (q *QueueManager) removeAt(name string, idx int) {
	entries := q.queues[name]
	q.queues[name] = append(entries[:idx:idx], entries[idx+1:]...)
}

func (q *QueueManager) takeAll(name string) []entities.QueueEntry {
	drained := q.queues[name]
	q.queues[name] = nil
	return drained
}

// QueueRegistry hands out one QueueManager per guild
type QueueRegistry struct {
	mu       sync.Mutex
	types    map[string]entities.QueueType
	metrics  interfaces.MatchMetrics
	managers map[int64]*QueueManager
}

// NewQueueRegistry creates a registry sharing the given queue types
func NewQueueRegistry(types map[string]entities.QueueType, metrics interfaces.MatchMetrics) *QueueRegistry {
	return &QueueRegistry{
		types:    types,
		metrics:  metrics,
		managers: make(map[int64]*QueueManager),
	}
}

// ForGuild returns the guild's queue manager, creating it on first use
func (r *QueueRegistry) ForGuild(guildID int64) *QueueManager {
	r.mu.Lock()
	defer r.mu.Unlock()
	manager, ok := r.managers[guildID]
	if !ok {
		manager = NewQueueManager(r.types, r.metrics)
		r.managers[guildID] = manager
	}
	return manager
}

// Guilds returns the IDs of guilds with a queue manager, sorted
func (r *QueueRegistry) Guilds() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.managers))
	for id := range r.managers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// QueueTypes returns the configured queue types
func (r *QueueRegistry) QueueTypes() map[string]entities.QueueType {
	return r.types
}
