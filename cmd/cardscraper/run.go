package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/user/card-scraper/internal/adapter/chromedp_browser"
	"github.com/user/card-scraper/internal/adapter/filesystem"
	"github.com/user/card-scraper/internal/adapter/postgres"
	"github.com/user/card-scraper/internal/adapter/postgrest"
	redis_adapter "github.com/user/card-scraper/internal/adapter/redis"
	"github.com/user/card-scraper/internal/delivery/http/handler"
	"github.com/user/card-scraper/internal/delivery/http/router"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/repository"
	"github.com/user/card-scraper/internal/usecase"
	"github.com/user/card-scraper/pkg/config"
	"github.com/user/card-scraper/pkg/logger"
	"github.com/user/card-scraper/pkg/metrics"
)

const metricsJob = "card_scraper"

func newRunCmd(envFile *string) *cobra.Command {
	var (
		pages       int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape every results page and upsert the cards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// --- Configuration ---
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("pages") {
				cfg.MaxPages = pages
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScraper(ctx, cfg)
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 36, "number of results pages to visit")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /api/status and /metrics on this address while running")
	return cmd
}

func runScraper(ctx context.Context, cfg *config.Config) error {
	// --- Logger ---
	logLevel := logger.ParseLevel(cfg.LogLevel)
	logger.Init(os.Stdout, logLevel, cfg.LogFormat)
	slog.Info("Logger initialized", "level", logLevel.String())

	// --- Metrics ---
	metrics.Init()

	// --- Card Store ---
	store, err := newCardStore(ctx, cfg)
	if err != nil {
		slog.Error("Unable to connect to card store", "backend", cfg.StoreBackend, "error", err)
		return err
	}
	defer store.Close()
	slog.Info("Card store ready", "backend", cfg.StoreBackend, "table", cfg.StoreTable)

	// --- Redis (optional) ---
	var options []usecase.Option
	var history repository.RunHistory
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			slog.Error("Unable to connect to Redis", "error", err)
			return err
		}
		history = redis_adapter.NewRunHistory(rdb)
		options = append(options,
			usecase.WithRunLock(redis_adapter.NewRunLock(rdb)),
			usecase.WithRunHistory(history),
		)
		slog.Info("Redis connection established")
	}

	// --- Browser ---
	session, err := chromedp_browser.NewChromedpSession(chromedp_browser.Options{
		Headless:        cfg.Headless,
		UserAgent:       cfg.UserAgent,
		ProxyServer:     cfg.ProxyServer,
		PageLoadTimeout: cfg.PageLoadTimeout,
	})
	if err != nil {
		slog.Error("Unable to start browser", "error", err)
		return err
	}

	// --- Use Cases ---
	tracker := usecase.NewRunTracker()
	scraper := usecase.NewCardScraper(
		session,
		store,
		filesystem.NewDebugArtifactRepo(appFs, cfg.DebugDir),
		tracker,
		usecase.ScraperOptions{
			Query: entity.SearchQuery{
				BaseURL:     cfg.SearchBaseURL,
				ProductLine: cfg.ProductLine,
				SetNames:    cfg.SetNames,
			},
			MaxPages:     cfg.MaxPages,
			WaitTimeout:  cfg.WaitTimeout,
			SettleDelay:  cfg.SettleDelay,
			RevealPause:  cfg.RevealPause,
			Table:        cfg.StoreTable,
			IncludeImage: cfg.PersistImageURL,
			LockTTL:      cfg.LockTTL,
		},
		options...,
	)

	// --- HTTP Server (optional) ---
	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      router.New(handler.NewHandler(tracker, history)),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			slog.Info("Starting status server", "addr", cfg.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Status server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Status server shutdown failed", "error", err)
			}
		}()
	}

	summary, runErr := scraper.Run(ctx)
	if summary != nil {
		slog.Info("Run summary",
			"pages_visited", summary.PagesVisited,
			"pages_skipped", summary.PagesSkipped,
			"cards_found", summary.CardsFound,
			"cards_accepted", summary.CardsAccepted,
			"rows_upserted", summary.RowsUpserted,
			"debug_artifacts", summary.DebugArtifacts(),
			"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
		)
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, metricsJob); err != nil {
			slog.Warn("Failed to push metrics", "gateway", cfg.PushgatewayURL, "error", err)
		}
	}

	if runErr != nil {
		slog.Error("Scrape run failed", "error", runErr)
		return runErr
	}
	return nil
}

func newCardStore(ctx context.Context, cfg *config.Config) (repository.CardStore, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		store, err := postgres.NewCardStore(ctx, cfg.StoreURL, cfg.StoreServiceKey)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendREST:
		return postgrest.NewCardStore(cfg.StoreURL, cfg.StoreServiceKey, cfg.StoreTimeout), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
