// Package cron runs periodic maintenance in the background while workspaced
// keeps serving after a run.
package cron

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pruner deletes journal entries created before cutoff.
type Pruner interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// JournalPruneJob periodically deletes journal entries older than its retention.
type JournalPruneJob struct {
	pruner    Pruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewJournalPruneJob creates a stopped job. Non-positive retention and interval
// fall back to seven days and one hour.
func NewJournalPruneJob(p Pruner, retention, interval time.Duration, logger zerolog.Logger) *JournalPruneJob {
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &JournalPruneJob{
		pruner:    p,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.With().Str("component", "journal_prune_cron").Logger(),
	}
}

// Start launches the background loop and returns immediately (non-blocking).
// Safe to call multiple times; subsequent calls are no-ops.
func (j *JournalPruneJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return nil
	}
	if j.pruner == nil {
		return errors.New("cron: pruner must be non-nil")
	}

	j.logger.Info().
		Dur("prune_interval", j.interval).
		Dur("retention_period", j.retention).
		Msg("starting journal prune job")

	j.stopCh = make(chan struct{})
	j.running = true
	j.wg.Add(1)

	go j.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to finish.
// Safe to call multiple times.
func (j *JournalPruneJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.running = false
	j.mu.Unlock()
	j.wg.Wait()
}

func (j *JournalPruneJob) run(ctx context.Context) {
	defer j.wg.Done()

	j.pruneOnce()

	t := time.NewTicker(j.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info().Msg("journal prune cron: context canceled; stopping")
			return
		case <-j.stopCh:
			j.logger.Info().Msg("journal prune cron: stop requested; stopping")
			return
		case <-t.C:
			j.pruneOnce()
		}
	}
}

func (j *JournalPruneJob) pruneOnce() {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.pruner.DeleteOlderThan(cutoff)
	if err != nil {
		j.logger.Warn().Err(err).Msg("journal prune failed; will retry on next tick")
		return
	}
	if deleted > 0 {
		j.logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("pruned journal entries")
	}
}
