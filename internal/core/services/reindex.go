package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/resumatch/internal/core/domain"
	"github.com/custodia-labs/resumatch/internal/core/ports/driving"
	"github.com/custodia-labs/resumatch/internal/logger"
)

// Ensure ReindexScheduler implements the interface.
var _ driving.ReindexStatus = (*ReindexScheduler)(nil)

// ReindexScheduler periodically rebuilds the indices in the background.
// It is the recovery path for drift between the keyword and vector stores.
type ReindexScheduler struct {
	indexer  driving.IndexService
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	last    *domain.ReindexRun

	// runMu is held for the length of a reindex; Stop takes it to wait.
	runMu sync.Mutex
}

// NewReindexScheduler creates a scheduler that runs every interval.
// A zero interval disables it.
func NewReindexScheduler(indexer driving.IndexService, interval time.Duration) *ReindexScheduler {
	return &ReindexScheduler{
		indexer:  indexer,
		interval: interval,
	}
}

// Start runs the scheduler loop. This method blocks until Stop is called or
// ctx is cancelled. The first reindex happens one interval after start.
func (s *ReindexScheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()
	defer s.release(stopCh)

	logger.Info("Background reindex every %s", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop shuts the loop down and waits for a running reindex to finish.
func (s *ReindexScheduler) Stop() error {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
		s.stopCh = nil
	}
	s.mu.Unlock()

	s.runMu.Lock()
	s.runMu.Unlock()
	return nil
}

// release marks the loop owning stopCh as stopped so Start may run again.
func (s *ReindexScheduler) release(stopCh chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == stopCh {
		s.running = false
		s.stopCh = nil
	}
}

// RunOnce performs a full reindex synchronously and records the outcome.
// Concurrent calls run one after the other.
func (s *ReindexScheduler) RunOnce(ctx context.Context) domain.ReindexRun {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := domain.ReindexRun{StartedAt: time.Now()}
	result, err := s.indexer.BuildFullIndex(ctx)
	run.EndedAt = time.Now()
	run.Result = result
	if err != nil {
		run.Error = err.Error()
		logger.Warn("Background reindex failed: %v", err)
	}

	s.mu.Lock()
	s.last = &run
	s.mu.Unlock()
	return run
}

// LastRun returns the most recent reindex, if any.
func (s *ReindexScheduler) LastRun() (domain.ReindexRun, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.ReindexRun{}, false
	}
	return *s.last, true
}
