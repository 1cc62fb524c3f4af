package repository

import (
	"context"

	"github.com/user/card-scraper/internal/entity"
)

// RunHistory keeps a bounded list of past run summaries, newest first.
type RunHistory interface {
	// Push records a finished run.
	Push(ctx context.Context, summary *entity.RunSummary) error
	// Recent returns up to limit summaries, newest first.
	Recent(ctx context.Context, limit int64) ([]*entity.RunSummary, error)
}
