package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/repository"
)

// CardStoreImpl provides a concrete implementation for the CardStore interface using PostgreSQL.
type CardStoreImpl struct {
	db *pgxpool.Pool
}

var _ repository.CardStore = (*CardStoreImpl)(nil)

// NewCardStore connects to the database at dsn. A non-empty password overrides the one in the DSN.
func NewCardStore(ctx context.Context, dsn, password string) (*CardStoreImpl, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if password != "" && poolConfig.ConnConfig.Password == "" {
		poolConfig.ConnConfig.Password = password
	}
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &CardStoreImpl{db: pool}, nil
}

// Upsert writes all rows in one transaction.
func (r *CardStoreImpl) Upsert(ctx context.Context, table string, rows []entity.CardRow, conflictKeys []string) error {
	if len(rows) == 0 {
		return nil
	}

	columns := rowColumns(rows[0].IncludeImage)
	query := buildUpsertQuery(table, columns, conflictKeys)

	batch := &pgx.Batch{}
	for _, row := range rows {
		args, err := rowArgs(row)
		if err != nil {
			return err
		}
		batch.Queue(query, args...)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", repository.ErrStoreRejected, table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit upsert into %s: %w", table, err)
	}
	return nil
}

// Close closes the connection pool.
func (r *CardStoreImpl) Close() {
	r.db.Close()
}

func rowColumns(withImage bool) []string {
	cols := []string{"card_name", "set_name", "card_number", "rarity", "ungraded_market_price", "date_updated"}
	if withImage {
		cols = append(cols, "image_url")
	}
	return cols
}

func rowArgs(row entity.CardRow) ([]any, error) {
	updated, err := time.Parse(time.RFC3339Nano, row.DateUpdated)
	if err != nil {
		return nil, fmt.Errorf("invalid date_updated %q: %w", row.DateUpdated, err)
	}
	args := []any{row.CardName, row.SetName, row.CardNumber, row.Rarity, row.UngradedMarketPrice, updated}
	if row.IncludeImage {
		args = append(args, row.ImageURL)
	}
	return args, nil
}

// buildUpsertQuery renders INSERT ... ON CONFLICT (keys) DO UPDATE for the non-key columns.
func buildUpsertQuery(table string, columns, conflictKeys []string) string {
	isKey := make(map[string]bool, len(conflictKeys))
	quotedKeys := make([]string, len(conflictKeys))
	for i, k := range conflictKeys {
		isKey[k] = true
		quotedKeys[i] = pgx.Identifier{k}.Sanitize()
	}

	quotedCols := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		q := pgx.Identifier{c}.Sanitize()
		quotedCols[i] = q
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if !isKey[c] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quotedCols, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(quotedKeys, ", "),
		strings.Join(updates, ", "),
	)
}
