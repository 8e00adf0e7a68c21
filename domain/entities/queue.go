package entities

import (
	"sort"
	"time"
)

// QueueType is a configured group shape players queue under (e.g. 4v4)
type QueueType struct {
	Name         string
	TeamSize     int
	TotalPlayers int
}

// DefaultQueueTypes returns the stock 2v2 through 5v5 queue types
func DefaultQueueTypes() map[string]QueueType {
	return map[string]QueueType{
		"2v2": {Name: "2v2", TeamSize: 2, TotalPlayers: 4},
		"3v3": {Name: "3v3", TeamSize: 3, TotalPlayers: 6},
		"4v4": {Name: "4v4", TeamSize: 4, TotalPlayers: 8},
		"5v5": {Name: "5v5", TeamSize: 5, TotalPlayers: 10},
	}
}

// SortedQueueTypeNames returns queue type names ordered by total players
func SortedQueueTypeNames(types map[string]QueueType) []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := types[names[i]], types[names[j]]
		if a.TotalPlayers == b.TotalPlayers {
			return a.Name < b.Name
		}
		return a.TotalPlayers < b.TotalPlayers
	})
	return names
}

// QueueEntry is one waiting player
type QueueEntry struct {
	PlayerID    int64
	DisplayName string
	QueueType   string
	JoinedAt    time.Time
}

// JoinResult describes the queue after a join
type JoinResult struct {
	QueueType string
	Count     int
	Required  int
	// PreviousQueue is set when the join moved the player out of another queue type
	PreviousQueue string
	// Drained holds the full group when this join filled the queue
	Drained []QueueEntry
}

// Filled reports whether this join triggered a drain
func (r *JoinResult) Filled() bool {
	return len(r.Drained) > 0
}

// PlayerIDs extracts the player IDs of entries, preserving order
func PlayerIDs(entries []QueueEntry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.PlayerID
	}
	return ids
}
