package response

import (
	"time"

	"github.com/user/card-scraper/internal/entity"
)

// RunStatusResponse is a DTO for the live run status, mirroring entity.RunStatus.
type RunStatusResponse struct {
	State        string     `json:"state"` // "idle", "running", "completed", "failed"
	CurrentPage  int        `json:"current_page"`
	MaxPages     int        `json:"max_pages"`
	PagesDone    int        `json:"pages_done"`
	PagesSkipped int        `json:"pages_skipped"`
	RowsUpserted int        `json:"rows_upserted"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

func NewRunStatusResponse(s entity.RunStatus) RunStatusResponse {
	return RunStatusResponse{
		State:        string(s.State),
		CurrentPage:  s.CurrentPage,
		MaxPages:     s.MaxPages,
		PagesDone:    s.PagesDone,
		PagesSkipped: s.PagesSkipped,
		RowsUpserted: s.RowsUpserted,
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		LastError:    s.LastError,
	}
}

// RunSummaryResponse is a finished run without its per-page detail.
type RunSummaryResponse struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	DurationMs     int64     `json:"duration_ms"`
	PagesVisited   int       `json:"pages_visited"`
	PagesSkipped   int       `json:"pages_skipped"`
	CardsFound     int       `json:"cards_found"`
	CardsAccepted  int       `json:"cards_accepted"`
	RowsUpserted   int       `json:"rows_upserted"`
	DebugArtifacts []string  `json:"debug_artifacts,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func NewRunSummaryResponse(s *entity.RunSummary) RunSummaryResponse {
	return RunSummaryResponse{
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		DurationMs:     s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
		PagesVisited:   s.PagesVisited,
		PagesSkipped:   s.PagesSkipped,
		CardsFound:     s.CardsFound,
		CardsAccepted:  s.CardsAccepted,
		RowsUpserted:   s.RowsUpserted,
		DebugArtifacts: s.DebugArtifacts(),
		Error:          s.Error,
	}
}

type RunListResponse struct {
	Runs []RunSummaryResponse `json:"runs"`
}
