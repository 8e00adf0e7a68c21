package entities

import "errors"

var (
	ErrAlreadyRegistered        = errors.New("player is already registered")
	ErrNotRegistered            = errors.New("player is not registered")
	ErrQueueCapacityUnmet       = errors.New("not enough players in queue")
	ErrAlreadyRecorded          = errors.New("match result already recorded")
	ErrNotParticipant           = errors.New("player was not in this match")
	ErrPermissionDenied         = errors.New("permission denied")
	ErrPersistenceFailure       = errors.New("persistence failure")
	ErrTransportOperationFailed = errors.New("transport operation failed")

	ErrNotInQueue       = errors.New("player is not in a queue")
	ErrUnknownQueueType = errors.New("unknown queue type")
	ErrMatchNotFound    = errors.New("match not found")
	ErrNoCandidates     = errors.New("vote requires at least one candidate")
	ErrSessionNotFound  = errors.New("vote session not found")
)
