package observability

const (
	MetricPrefix = "matchmaker"
)

// Metric names
const (
	// Match lifecycle metrics
	MatchStateTransitionsTotal = MetricPrefix + ".match.state_transitions_total"
	MatchesAbortedTotal        = MetricPrefix + ".match.aborted_total"
	MatchResultsTotal          = MetricPrefix + ".match.results_total"

	// Vote and draft metrics
	VotesCastTotal    = MetricPrefix + ".vote.cast_total"
	PickTimeoutsTotal = MetricPrefix + ".draft.pick_timeouts_total"

	// Queue metrics
	QueueJoinsTotal = MetricPrefix + ".queue.joins_total"

	// Discord metrics
	InteractionsTotal = MetricPrefix + ".discord.interactions_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType          = "type"
	LabelEventType     = "event_type"
	LabelQueueType     = "queue_type"
	LabelState         = "state"
	LabelAdminReported = "admin_reported"
)

// Interaction types for Discord
const (
	InteractionTypeCommand   = "command"
	InteractionTypeComponent = "component"
)
