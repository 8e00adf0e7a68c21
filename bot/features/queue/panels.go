package queue

import "sync"

// panelRef points at a posted queue panel
type panelRef struct {
	ChannelID string
	MessageID string
}

type panelKey struct {
	guildID   int64
	queueType string
}

// panelTracker remembers the posted panels that need live updates
type panelTracker struct {
	mu     sync.Mutex
	panels map[panelKey][]panelRef
}

// maxPanelsPerQueue bounds how many panels of one queue type are kept live
const maxPanelsPerQueue = 5

func newPanelTracker() *panelTracker {
	return &panelTracker{panels: make(map[panelKey][]panelRef)}
}

func (t *panelTracker) track(guildID int64, queueType string, ref panelRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := panelKey{guildID, queueType}
	refs := append(t.panels[key], ref)
	if len(refs) > maxPanelsPerQueue {
		refs = refs[len(refs)-maxPanelsPerQueue:]
	}
	t.panels[key] = refs
}

func (t *panelTracker) get(guildID int64, queueType string) []panelRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]panelRef(nil), t.panels[panelKey{guildID, queueType}]...)
}

func (t *panelTracker) forget(guildID int64, queueType string, ref panelRef) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := panelKey{guildID, queueType}
	refs := t.panels[key]
	for i, r := range refs {
		if r == ref {
			t.panels[key] = append(refs[:i:i], refs[i+1:]...)
			return
		}
	}
}
