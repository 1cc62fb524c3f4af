package entity

import "time"

// RunState is the lifecycle state of a scrape run.
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// RunStatus is a point-in-time view of the current run.
type RunStatus struct {
	State        RunState   `json:"state"`
	CurrentPage  int        `json:"current_page"`
	MaxPages     int        `json:"max_pages"`
	PagesDone    int        `json:"pages_done"`
	PagesSkipped int        `json:"pages_skipped"`
	RowsUpserted int        `json:"rows_upserted"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// RunSummary is the final account of a run, kept in the run history.
type RunSummary struct {
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	PagesVisited  int          `json:"pages_visited"`
	PagesSkipped  int          `json:"pages_skipped"`
	CardsFound    int          `json:"cards_found"`
	CardsAccepted int          `json:"cards_accepted"`
	RowsUpserted  int          `json:"rows_upserted"`
	Pages         []PageResult `json:"pages"`
	Error         string       `json:"error,omitempty"`
}

// Record folds a page result into the summary.
func (s *RunSummary) Record(p PageResult) {
	s.Pages = append(s.Pages, p)
	s.PagesVisited++
	if p.Outcome == PageTimeout {
		s.PagesSkipped++
	}
	s.CardsFound += p.CardsFound
	s.CardsAccepted += p.CardsAccepted
	s.RowsUpserted += p.RowsUpserted
}

// DebugArtifacts lists the debug artifacts written during the run.
func (s *RunSummary) DebugArtifacts() []string {
	var paths []string
	for _, p := range s.Pages {
		if p.DebugArtifact != "" {
			paths = append(paths, p.DebugArtifact)
		}
	}
	return paths
}
