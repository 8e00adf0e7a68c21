package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"matchmaker/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSEventPublisher_LocalOnly(t *testing.T) {
	publisher := NewNATSEventPublisher(nil, NewEventSubjectMapper())

	var calls []string
	publisher.RegisterLocalHandler(events.EventTypeMatchDisputed, func(ctx context.Context, event events.Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	publisher.RegisterLocalHandler(events.EventTypeMatchDisputed, func(ctx context.Context, event events.Event) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, publisher.Publish(events.MatchDisputedEvent{MatchID: 9}))
	assert.Equal(t, []string{"first", "second"}, calls)

	// other event types do not reach the handlers
	require.NoError(t, publisher.Publish(events.MatchCreatedEvent{MatchID: 9}))
	assert.Len(t, calls, 2)

	assert.NoError(t, publisher.EnsureDomainEventStream())
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	cases := []struct {
		event   events.Event
		subject string
	}{
		{events.PlayerRegisteredEvent{}, "players.registered"},
		{events.RatingAdjustedEvent{}, "players.rating_adjusted"},
		{events.MatchCreatedEvent{}, "matches.created"},
		{events.MatchResultRecordedEvent{}, "matches.result_recorded"},
		{events.MatchDisputedEvent{}, "matches.disputed"},
	}
	for _, tc := range cases {
		event, subject := tc.event, tc.subject
		assert.Equal(t, subject, mapper.MapEventToSubject(event))
		assert.Equal(t, event.Type(), mapper.MapSubjectToEventType(subject))
		assert.Contains(t, mapper.GetAllSubjects(), subject)
	}
	assert.Len(t, mapper.GetAllSubjects(), len(cases))
}

func TestEventEnvelope_JSON(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	envelope, err := NewEventEnvelope(events.MatchCreatedEvent{MatchID: 7, GuildID: 3, MapName: "Bind"}, stamp)
	require.NoError(t, err)
	assert.NotEmpty(t, envelope.EventID)
	assert.Equal(t, "match_created", envelope.EventType)
	assert.Equal(t, "matchmaker", envelope.SourceService)

	data, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"2025-03-01T12:30:00Z"`)

	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, envelope.EventID, decoded.EventID)
	assert.True(t, stamp.Equal(decoded.Timestamp.AsTime()))

	var payload events.MatchCreatedEvent
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, int64(7), payload.MatchID)
	assert.Equal(t, "Bind", payload.MapName)
}
