package infrastructure

import (
	"context"
	"errors"
	"testing"

	"matchmaker/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingEventPublisher struct {
	published []events.Event
	failOn    events.EventType
}

func (m *recordingEventPublisher) Publish(event events.Event) error {
	if event.Type() == m.failOn {
		return errors.New("publish failed")
	}
	m.published = append(m.published, event)
	return nil
}

func TestNATSTransactionalPublisher_FlushPublishesInOrder(t *testing.T) {
	real := &recordingEventPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	first := events.PlayerRegisteredEvent{GuildID: 1, DiscordID: 10, Username: "a"}
	second := events.MatchCreatedEvent{MatchID: 5, GuildID: 1}
	require.NoError(t, publisher.Publish(first))
	require.NoError(t, publisher.Publish(second))

	assert.Empty(t, real.published)
	assert.Equal(t, 2, publisher.PendingCount())

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, []events.Event{first, second}, real.published)
	assert.Zero(t, publisher.PendingCount())

	// a second flush has nothing left to send
	require.NoError(t, publisher.Flush(context.Background()))
	assert.Len(t, real.published, 2)
}

func TestNATSTransactionalPublisher_DiscardDropsEvents(t *testing.T) {
	real := &recordingEventPublisher{}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.MatchDisputedEvent{MatchID: 3}))
	publisher.Discard()

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Empty(t, real.published)
}

func TestNATSTransactionalPublisher_FailureDoesNotBlockRest(t *testing.T) {
	real := &recordingEventPublisher{failOn: events.EventTypeMatchCreated}
	publisher := NewNATSTransactionalPublisher(real)

	require.NoError(t, publisher.Publish(events.MatchCreatedEvent{MatchID: 1}))
	require.NoError(t, publisher.Publish(events.MatchDisputedEvent{MatchID: 1}))

	require.NoError(t, publisher.Flush(context.Background()))
	require.Len(t, real.published, 1)
	assert.Equal(t, events.EventTypeMatchDisputed, real.published[0].Type())
}

func TestNATSTransactionalPublisher_FlushRunsLocalHandlers(t *testing.T) {
	local := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	var handled []int64
	local.RegisterLocalHandler(events.EventTypeMatchResultRecorded, func(ctx context.Context, event events.Event) error {
		handled = append(handled, event.(events.MatchResultRecordedEvent).MatchID)
		return nil
	})

	publisher := NewNATSTransactionalPublisher(local)
	require.NoError(t, publisher.Publish(events.MatchResultRecordedEvent{MatchID: 42}))
	assert.Empty(t, handled)

	require.NoError(t, publisher.Flush(context.Background()))
	assert.Equal(t, []int64{42}, handled)
}
