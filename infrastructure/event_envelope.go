package infrastructure

import (
	"encoding/json"
	"fmt"
	"time"

	"matchmaker/domain/events"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const sourceService = "matchmaker"

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     *timestamppb.Timestamp `json:"-"`
	SourceService string                 `json:"source_service"`
	Payload       json.RawMessage        `json:"payload"`
}

type envelopeJSON struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     json.RawMessage `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEventEnvelope serializes the event and stamps it with a fresh ID
func NewEventEnvelope(event events.Event, now time.Time) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     timestamppb.New(now),
		SourceService: sourceService,
		Payload:       payload,
	}, nil
}

// MarshalJSON renders the timestamp in its RFC 3339 protobuf JSON form
func (e *EventEnvelope) MarshalJSON() ([]byte, error) {
	ts, err := protojson.Marshal(e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	return json.Marshal(envelopeJSON{
		EventID:       e.EventID,
		EventType:     e.EventType,
		Timestamp:     ts,
		SourceService: e.SourceService,
		Payload:       e.Payload,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON
func (e *EventEnvelope) UnmarshalJSON(data []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts := &timestamppb.Timestamp{}
	if len(raw.Timestamp) > 0 {
		if err := protojson.Unmarshal(raw.Timestamp, ts); err != nil {
			return fmt.Errorf("failed to unmarshal timestamp: %w", err)
		}
	}
	*e = EventEnvelope{
		EventID:       raw.EventID,
		EventType:     raw.EventType,
		Timestamp:     ts,
		SourceService: raw.SourceService,
		Payload:       raw.Payload,
	}
	return nil
}
