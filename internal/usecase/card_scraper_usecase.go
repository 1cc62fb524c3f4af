package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/extractor"
	"github.com/user/card-scraper/internal/repository"
	"github.com/user/card-scraper/pkg/metrics"
)

// CardScraper defines the interface for one pass over the search results.
type CardScraper interface {
	Run(ctx context.Context) (*entity.RunSummary, error)
}

// ScraperOptions holds the tunables of a run.
type ScraperOptions struct {
	Query        entity.SearchQuery
	MaxPages     int
	WaitTimeout  time.Duration
	SettleDelay  time.Duration
	RevealPause  time.Duration
	Table        string
	IncludeImage bool
	LockTTL      time.Duration
}

// Option customizes the scraper.
type Option func(*cardScraperUseCase)

// WithRunLock makes Run hold lock for the whole pass.
func WithRunLock(lock repository.RunLock) Option {
	return func(uc *cardScraperUseCase) { uc.lock = lock }
}

// WithRunHistory records each finished run in history.
func WithRunHistory(history repository.RunHistory) Option {
	return func(uc *cardScraperUseCase) { uc.history = history }
}

// WithClock replaces time.Now and the settle sleep.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(uc *cardScraperUseCase) {
		if now != nil {
			uc.now = now
		}
		if sleep != nil {
			uc.sleep = sleep
		}
	}
}

type cardScraperUseCase struct {
	session   repository.BrowserSession
	store     repository.CardStore
	artifacts repository.DebugArtifactRepository
	lock      repository.RunLock
	history   repository.RunHistory
	tracker   *RunTracker
	opts      ScraperOptions
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
}

// NewCardScraper creates a new instance of the card scraper use case.
// The scraper owns session and closes it when Run returns.
func NewCardScraper(
	session repository.BrowserSession,
	store repository.CardStore,
	artifacts repository.DebugArtifactRepository,
	tracker *RunTracker,
	opts ScraperOptions,
	options ...Option,
) CardScraper {
	if opts.Table == "" {
		opts.Table = entity.CardsTable
	}
	if tracker == nil {
		tracker = NewRunTracker()
	}
	uc := &cardScraperUseCase{
		session:   session,
		store:     store,
		artifacts: artifacts,
		tracker:   tracker,
		opts:      opts,
		logger:    slog.Default().With("component", "scraper"),
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, o := range options {
		o(uc)
	}
	return uc
}

// Run visits pages 1..MaxPages in order and upserts each page's eligible cards before moving on.
// A page whose results never appear is skipped. Any other browser or store error ends the run.
func (uc *cardScraperUseCase) Run(ctx context.Context) (summary *entity.RunSummary, err error) {
	defer func() {
		if cerr := uc.session.Close(); cerr != nil {
			uc.logger.Warn("Failed to close browser session", "error", cerr)
		}
	}()

	summary = &entity.RunSummary{StartedAt: uc.now().UTC()}
	uc.tracker.Start(summary.StartedAt, uc.opts.MaxPages)
	defer func() {
		summary.FinishedAt = uc.now().UTC()
		if err != nil {
			summary.Error = err.Error()
		}
		uc.tracker.Finish(summary.FinishedAt, err)
		uc.recordHistory(ctx, summary, err)
	}()

	if uc.lock != nil {
		lockKey := uc.opts.Query.Template()
		token, err := uc.lock.Acquire(ctx, lockKey, uc.opts.LockTTL)
		if err != nil {
			return summary, fmt.Errorf("failed to acquire run lock: %w", err)
		}
		defer func() {
			if rerr := uc.lock.Release(context.WithoutCancel(ctx), lockKey, token); rerr != nil {
				uc.logger.Warn("Failed to release run lock", "error", rerr)
			}
		}()
	}

	uc.logger.Info("Starting scrape", "max_pages", uc.opts.MaxPages, "template", uc.opts.Query.Template())

	for page := 1; page <= uc.opts.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		result, err := uc.scrapePage(ctx, page)
		summary.Record(result)
		uc.tracker.PageDone(result)
		if err != nil {
			return summary, fmt.Errorf("page %d: %w", page, err)
		}
	}

	uc.logger.Info("Scrape finished",
		"pages_visited", summary.PagesVisited,
		"pages_skipped", summary.PagesSkipped,
		"cards_found", summary.CardsFound,
		"cards_accepted", summary.CardsAccepted,
		"rows_upserted", summary.RowsUpserted,
	)
	return summary, nil
}

func (uc *cardScraperUseCase) scrapePage(ctx context.Context, page int) (result entity.PageResult, err error) {
	pageURL := uc.opts.Query.PageURL(page)
	result = entity.PageResult{Page: page, URL: pageURL}
	logger := uc.logger.With("page", page)

	uc.tracker.PageStarted(page)
	start := uc.now()
	defer func() {
		if err != nil {
			result.Outcome = entity.PageFailed
			result.FailureReason = err.Error()
		}
		outcome := string(result.Outcome)
		metrics.PagesTotal.WithLabelValues(outcome).Inc()
		metrics.PageDuration.WithLabelValues(outcome).Observe(uc.now().Sub(start).Seconds())
	}()

	logger.Info("Navigating to results page", "url", pageURL)
	if err := uc.session.Navigate(ctx, pageURL); err != nil {
		return result, err
	}

	if err := uc.session.WaitReady(ctx, uc.opts.WaitTimeout); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logger.Debug("Document not ready before timeout, continuing", "error", err)
	}

	if err := uc.session.WaitPresent(ctx, extractor.CardSelector, uc.opts.WaitTimeout); err != nil {
		if errors.Is(err, repository.ErrWaitTimeout) {
			uc.handleMissingResults(ctx, logger, &result)
			return result, nil
		}
		return result, err
	}

	if err := uc.sleep(ctx, uc.opts.SettleDelay); err != nil {
		return result, err
	}

	if err := uc.session.Reveal(ctx, extractor.ImageSelector, uc.opts.RevealPause); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logger.Warn("Failed to reveal card images", "error", err)
	}

	markup, err := uc.session.PageSource(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read page source: %w", err)
	}

	extracted, err := extractor.ExtractCards(markup, pageURL, uc.now())
	if err != nil {
		return result, err
	}

	eligible := extracted.Eligible()
	result.CardsFound = extracted.Elements
	result.CardsAccepted = len(eligible)
	metrics.CardsTotal.WithLabelValues("accepted").Add(float64(len(eligible)))
	metrics.CardsTotal.WithLabelValues("discarded").Add(float64(extracted.Elements - len(eligible)))

	logger.Info("Cards found", "elements", extracted.Elements, "eligible", len(eligible))
	for _, c := range eligible {
		logger.Debug("Accepted card", "card_name", c.CardName, "set_name", c.SetName, "card_number", c.CardNumber)
	}

	batch := collapseByKey(eligible)
	result.Outcome = entity.PageScraped
	if len(batch) == 0 {
		logger.Info("No eligible cards on page, nothing to upsert")
		return result, nil
	}

	rows := make([]entity.CardRow, 0, len(batch))
	for _, c := range batch {
		rows = append(rows, c.Row(uc.opts.IncludeImage))
	}

	upsertStart := uc.now()
	err = uc.store.Upsert(ctx, uc.opts.Table, rows, entity.ConflictKeys)
	metrics.UpsertDuration.Observe(uc.now().Sub(upsertStart).Seconds())
	if err != nil {
		return result, fmt.Errorf("failed to upsert %d rows: %w", len(rows), err)
	}

	result.RowsUpserted = len(rows)
	metrics.RowsUpsertedTotal.Add(float64(len(rows)))
	logger.Info("Upserted cards", "table", uc.opts.Table, "rows", len(rows))
	return result, nil
}

// handleMissingResults dumps the page for later inspection. Nothing here can fail the run.
func (uc *cardScraperUseCase) handleMissingResults(ctx context.Context, logger *slog.Logger, result *entity.PageResult) {
	result.Outcome = entity.PageTimeout

	current, err := uc.session.CurrentURL(ctx)
	if err != nil {
		current = result.URL
	}
	logger.Warn("Timed out waiting for search results, skipping page",
		"current_url", current, "timeout", uc.opts.WaitTimeout)

	markup, err := uc.session.PageSource(ctx)
	if err != nil {
		logger.Warn("Failed to read page source for debug artifact", "error", err)
		return
	}
	path, err := uc.artifacts.Save(ctx, result.Page, markup)
	if err != nil {
		logger.Warn("Failed to write debug artifact", "error", err)
		return
	}
	result.DebugArtifact = path
	logger.Info("Saved debug artifact", "path", path)
}

func (uc *cardScraperUseCase) recordHistory(ctx context.Context, summary *entity.RunSummary, runErr error) {
	if uc.history == nil || errors.Is(runErr, repository.ErrRunInProgress) {
		return
	}
	if err := uc.history.Push(context.WithoutCancel(ctx), summary); err != nil {
		uc.logger.Warn("Failed to record run history", "error", err)
	}
}

// collapseByKey keeps the last record for each conflict key, in first-seen order.
func collapseByKey(cards []entity.CardRecord) []entity.CardRecord {
	index := make(map[entity.CardKey]int, len(cards))
	out := make([]entity.CardRecord, 0, len(cards))
	for _, c := range cards {
		if i, ok := index[c.Key()]; ok {
			out[i] = c
			continue
		}
		index[c.Key()] = len(out)
		out = append(out, c)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
