package application

import (
	"matchmaker/domain/events"
)

// RegisterApplicationSubscriptions wires the in-process handlers that keep
// Discord in sync with match events
func RegisterApplicationSubscriptions(registrar LocalHandlerRegistrar, handler *MatchEventHandler) {
	registrar.RegisterLocalHandler(events.EventTypeMatchResultRecorded, handler.HandleMatchResultRecorded)
	registrar.RegisterLocalHandler(events.EventTypeMatchDisputed, handler.HandleMatchDisputed)
	registrar.RegisterLocalHandler(events.EventTypeRatingAdjusted, handler.HandleRatingAdjusted)
}
