package application

import (
	"context"

	"matchmaker/domain/events"
	"matchmaker/domain/interfaces"
	"matchmaker/domain/testhelpers"

	"github.com/stretchr/testify/mock"
)

type fakeUnitOfWork struct {
	matches   *testhelpers.InMemoryMatchRepository
	players   *testhelpers.InMemoryPlayerRepository
	pending   []events.Event
	published *[]events.Event
	committed bool
	begun     bool
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	u.begun = true
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	u.committed = true
	*u.published = append(*u.published, u.pending...)
	u.pending = nil
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.pending = nil
	return nil
}

func (u *fakeUnitOfWork) PlayerRepository() interfaces.PlayerRepository { return u.players }
func (u *fakeUnitOfWork) MatchRepository() interfaces.MatchRepository   { return u.matches }
func (u *fakeUnitOfWork) EventBus() interfaces.EventPublisher           { return u }

func (u *fakeUnitOfWork) Publish(event events.Event) error {
	u.pending = append(u.pending, event)
	return nil
}

type fakeUnitOfWorkFactory struct {
	matches   *testhelpers.InMemoryMatchRepository
	players   *testhelpers.InMemoryPlayerRepository
	published []events.Event
	last      *fakeUnitOfWork
	guilds    []int64
}

func newFakeUnitOfWorkFactory() *fakeUnitOfWorkFactory {
	return &fakeUnitOfWorkFactory{
		matches: testhelpers.NewInMemoryMatchRepository(),
		players: testhelpers.NewInMemoryPlayerRepository(),
	}
}

func (f *fakeUnitOfWorkFactory) CreateForGuild(guildID int64) UnitOfWork {
	f.guilds = append(f.guilds, guildID)
	f.last = &fakeUnitOfWork{matches: f.matches, players: f.players, published: &f.published}
	return f.last
}

type mockResultPoster struct {
	mock.Mock
}

func (m *mockResultPoster) PostMatchResult(ctx context.Context, event events.MatchResultRecordedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockResultPoster) PostDisputeReview(ctx context.Context, event events.MatchDisputedEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockResultPoster) RefreshLeaderboard(ctx context.Context, guildID int64) error {
	return m.Called(ctx, guildID).Error(0)
}

type recordingTracker struct {
	resolved []int64
}

func (r *recordingTracker) MarkResolved(matchID int64) bool {
	r.resolved = append(r.resolved, matchID)
	return true
}

type recordingResultMetrics struct {
	queueTypes []string
	admin      []bool
}

func (r *recordingResultMetrics) RecordResult(ctx context.Context, queueType string, adminReported bool) {
	r.queueTypes = append(r.queueTypes, queueType)
	r.admin = append(r.admin, adminReported)
}
