package postgrest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/repository"
)

// CardStoreImpl upserts rows through a hosted PostgREST endpoint (e.g. Supabase).
type CardStoreImpl struct {
	client *resty.Client
	logger *slog.Logger
}

var _ repository.CardStore = (*CardStoreImpl)(nil)

// NewCardStore creates a store client for the project at baseURL, authenticated with a service-role key.
func NewCardStore(baseURL, serviceKey string, timeout time.Duration) *CardStoreImpl {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &CardStoreImpl{
		client: client,
		logger: slog.Default().With("component", "postgrest_store"),
	}
}

// Upsert posts rows in a single request. Rows matching conflictKeys are merged, others inserted.
func (s *CardStoreImpl) Upsert(ctx context.Context, table string, rows []entity.CardRow, conflictKeys []string) error {
	if len(rows) == 0 {
		return nil
	}

	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("on_conflict", strings.Join(conflictKeys, ",")).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetBody(rows).
		Post("/rest/v1/" + url.PathEscape(table))
	if err != nil {
		return fmt.Errorf("failed to upsert into %s: %w", table, err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: %s: status %d: %s", repository.ErrStoreRejected, table, res.StatusCode(), strings.TrimSpace(res.String()))
	}

	s.logger.Debug("Upsert accepted", "table", table, "rows", len(rows), "status", res.StatusCode(), "duration_ms", res.Time().Milliseconds())
	return nil
}

// Close drops idle connections.
func (s *CardStoreImpl) Close() {
	s.client.GetClient().CloseIdleConnections()
}
