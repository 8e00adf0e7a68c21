package infrastructure

import (
	"fmt"

	"matchmaker/domain/events"
)

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByEventType = map[events.EventType]string{
	events.EventTypePlayerRegistered:    "players.registered",
	events.EventTypeRatingAdjusted:      "players.rating_adjusted",
	events.EventTypeMatchCreated:        "matches.created",
	events.EventTypeMatchResultRecorded: "matches.result_recorded",
	events.EventTypeMatchDisputed:       "matches.disputed",
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"players.registered",
		"players.rating_adjusted",
		"matches.created",
		"matches.result_recorded",
		"matches.disputed",
	}
}
