package usecase

import (
	"sync"
	"time"

	"github.com/user/card-scraper/internal/entity"
)

// RunTracker holds the live status of the current run for the status endpoint.
type RunTracker struct {
	mu     sync.RWMutex
	status entity.RunStatus
}

// NewRunTracker creates a tracker in the idle state.
func NewRunTracker() *RunTracker {
	return &RunTracker{status: entity.RunStatus{State: entity.RunIdle}}
}

// Start resets the status for a new run.
func (t *RunTracker) Start(at time.Time, maxPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = entity.RunStatus{
		State:     entity.RunRunning,
		MaxPages:  maxPages,
		StartedAt: &at,
	}
}

// PageStarted marks page as the one being scraped.
func (t *RunTracker) PageStarted(page int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.CurrentPage = page
}

// PageDone folds a finished page into the counters.
func (t *RunTracker) PageDone(p entity.PageResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.PagesDone++
	if p.Outcome == entity.PageTimeout {
		t.status.PagesSkipped++
	}
	t.status.RowsUpserted += p.RowsUpserted
}

// Finish marks the run completed, or failed when err is set.
func (t *RunTracker) Finish(at time.Time, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status.FinishedAt = &at
	if err != nil {
		t.status.State = entity.RunFailed
		t.status.LastError = err.Error()
		return
	}
	t.status.State = entity.RunCompleted
}

// Status returns a copy of the current status.
func (t *RunTracker) Status() entity.RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := t.status
	if s.StartedAt != nil {
		started := *s.StartedAt
		s.StartedAt = &started
	}
	if s.FinishedAt != nil {
		finished := *s.FinishedAt
		s.FinishedAt = &finished
	}
	return s
}
