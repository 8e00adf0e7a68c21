package infrastructure

import (
	"context"

	"matchmaker/application"
	"matchmaker/database"
	"matchmaker/domain/events"
	"matchmaker/domain/interfaces"
	"matchmaker/repository"
)

type guildUnitOfWorkFactory interface {
	CreateForGuildWithPublisher(guildID int64, transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork
}

// UnitOfWorkFactory creates units of work whose events are released after commit
type UnitOfWorkFactory struct {
	repoFactory    guildUnitOfWorkFactory
	eventPublisher *NATSEventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWorkFactory
func NewUnitOfWorkFactory(db *database.DB, eventPublisher *NATSEventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		repoFactory:    repository.NewUnitOfWorkFactory(db),
		eventPublisher: eventPublisher,
	}
}

// RegisterLocalHandler registers an in-process handler for an event type
func (f *UnitOfWorkFactory) RegisterLocalHandler(eventType events.EventType, handler func(context.Context, events.Event) error) {
	f.eventPublisher.RegisterLocalHandler(eventType, handler)
}

// CreateForGuild creates a new UnitOfWork with its own transactional publisher
func (f *UnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	return f.repoFactory.CreateForGuildWithPublisher(guildID, NewNATSTransactionalPublisher(f.eventPublisher))
}

var _ application.LocalHandlerRegistrar = (*UnitOfWorkFactory)(nil)
var _ application.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
