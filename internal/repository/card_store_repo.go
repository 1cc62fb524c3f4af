package repository

import (
	"context"

	"github.com/user/card-scraper/internal/entity"
)

// CardStore defines the interface for persisting scraped cards.
type CardStore interface {
	// Upsert inserts rows into table, overwriting existing rows that match on conflictKeys.
	Upsert(ctx context.Context, table string, rows []entity.CardRow, conflictKeys []string) error
	// Close releases any connection held by the store.
	Close()
}
