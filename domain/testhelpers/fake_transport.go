package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"matchmaker/domain/interfaces"
)

// SentPrompt is a prompt captured by FakeTransport
type SentPrompt struct {
	ChannelID int64
	Prompt    interfaces.Prompt
}

// RoleDelta is a role change captured by FakeTransport
type RoleDelta struct {
	GuildID    int64
	PlayerID   int64
	AddRole    int64
	RemoveRole int64
}

// FakeTransport records every call and can be told to fail specific operations.
// OnPrompt, when set, is called synchronously for every prompt.
type FakeTransport struct {
	mu sync.Mutex

	nextChannelID int64
	Channels      map[int64]string
	Deleted       []int64
	Prompts       []SentPrompt
	Moves         map[int64]int64
	Roles         []RoleDelta
	Notifications []string

	FailCreateMatchChannel bool
	FailCreateVoiceChannel bool
	FailMove               bool
	FailPromptKinds        map[string]bool

	OnPrompt func(channelID int64, prompt interfaces.Prompt)
}

// NewFakeTransport creates an empty fake transport
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		nextChannelID:   9000,
		Channels:        make(map[int64]string),
		Moves:           make(map[int64]int64),
		FailPromptKinds: make(map[string]bool),
	}
}

func (t *FakeTransport) CreateMatchChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailCreateMatchChannel {
		return 0, fmt.Errorf("missing permissions")
	}
	t.nextChannelID++
	t.Channels[t.nextChannelID] = name
	return t.nextChannelID, nil
}

func (t *FakeTransport) CreateVoiceChannel(ctx context.Context, guildID int64, name string, participants []int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailCreateVoiceChannel {
		return 0, fmt.Errorf("missing permissions")
	}
	t.nextChannelID++
	t.Channels[t.nextChannelID] = name
	return t.nextChannelID, nil
}

func (t *FakeTransport) SendPrompt(ctx context.Context, channelID int64, prompt interfaces.Prompt) (string, error) {
	t.mu.Lock()
	if t.FailPromptKinds[interfaces.PromptKind(prompt)] {
		t.mu.Unlock()
		return "", fmt.Errorf("send failed")
	}
	t.Prompts = append(t.Prompts, SentPrompt{ChannelID: channelID, Prompt: prompt})
	ref := fmt.Sprintf("msg-%d", len(t.Prompts))
	hook := t.OnPrompt
	t.mu.Unlock()

	if hook != nil {
		hook(channelID, prompt)
	}
	return ref, nil
}

func (t *FakeTransport) MovePlayer(ctx context.Context, guildID int64, playerID int64, channelID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailMove {
		return fmt.Errorf("player not connected to voice")
	}
	t.Moves[playerID] = channelID
	return nil
}

func (t *FakeTransport) DeleteChannel(ctx context.Context, channelID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.Channels, channelID)
	t.Deleted = append(t.Deleted, channelID)
	return nil
}

func (t *FakeTransport) ApplyRoleDelta(ctx context.Context, guildID int64, playerID int64, addRole int64, removeRole int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Roles = append(t.Roles, RoleDelta{GuildID: guildID, PlayerID: playerID, AddRole: addRole, RemoveRole: removeRole})
	return nil
}

func (t *FakeTransport) NotifyInitiator(ctx context.Context, initiator interfaces.Initiator, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Notifications = append(t.Notifications, message)
	return nil
}

// PromptsOfKind returns captured prompts of one kind
func (t *FakeTransport) PromptsOfKind(kind string) []interfaces.Prompt {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []interfaces.Prompt
	for _, p := range t.Prompts {
		if interfaces.PromptKind(p.Prompt) == kind {
			out = append(out, p.Prompt)
		}
	}
	return out
}

// DeletedChannels returns a copy of deleted channel IDs
func (t *FakeTransport) DeletedChannels() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int64(nil), t.Deleted...)
}

// ChannelCount returns the number of live channels
func (t *FakeTransport) ChannelCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Channels)
}
