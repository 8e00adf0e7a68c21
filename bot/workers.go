package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	cleanupInterval = time.Minute
	// runs still awaiting a result after this long are dropped from memory
	staleRunAge = 24 * time.Hour
)

// StartCleanupWorker starts a background worker that releases expired vote
// sessions and forgets abandoned match runs.
// Returns a cleanup function to stop the worker gracefully
func (b *Bot) StartCleanupWorker(ctx context.Context) func() {
	ticker := time.NewTicker(cleanupInterval)
	stopChan := make(chan struct{})

	go func() {
		log.Info("Match cleanup worker started")

		for {
			select {
			case <-ctx.Done():
				log.Info("Match cleanup worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Match cleanup worker shutting down (stop requested)...")
				return
			case <-ticker.C:
				b.runCleanup()
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(stopChan)
	}
}

// runCleanup does one sweep and returns how many sessions and runs it dropped
func (b *Bot) runCleanup() (int, int) {
	sessions := b.votes.ReleaseStale(b.config.StaleVoteGrace)
	runs := b.orchestrator.ForgetStale(staleRunAge)

	if sessions > 0 || runs > 0 {
		log.WithFields(log.Fields{
			"voteSessions": sessions,
			"matchRuns":    runs,
		}).Info("Released stale match state")
	}
	return sessions, runs
}
