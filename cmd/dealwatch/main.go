package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/adapter/chromedp_fetcher"
	"github.com/user/dealwatch/internal/adapter/console"
	"github.com/user/dealwatch/internal/adapter/httpfetch"
	"github.com/user/dealwatch/internal/adapter/memory"
	"github.com/user/dealwatch/internal/adapter/postgres"
	redis_adapter "github.com/user/dealwatch/internal/adapter/redis"
	"github.com/user/dealwatch/internal/adapter/sqlite"
	"github.com/user/dealwatch/internal/adapter/twilio"
	"github.com/user/dealwatch/internal/delivery/http/handler"
	"github.com/user/dealwatch/internal/delivery/http/router"
	"github.com/user/dealwatch/internal/extractor"
	"github.com/user/dealwatch/internal/repository"
	"github.com/user/dealwatch/internal/usecase"
	"github.com/user/dealwatch/pkg/config"
	"github.com/user/dealwatch/pkg/logger"
	"github.com/user/dealwatch/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	// --- Logger ---
	zl, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("could not initialize logger: %v", err)
	}
	defer zl.Sync()
	if !cfg.EnvFileLoaded {
		zl.Info("no .env file found, using process environment")
	}

	// --- Metrics ---
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("dealwatch exited with error", zap.Error(err))
		zl.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// --- Storage ---
	store, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			zl.Error("failed to close store", zap.Error(err))
		}
	}()

	// --- Fetcher, Notifier ---
	fetcher, closeFetcher := newFetcher(cfg, zl)
	defer closeFetcher()
	notifier := newNotifier(cfg, zl)

	// --- Use Cases ---
	watcher := usecase.NewWatcher(
		cfg.SearchURL,
		cfg.PriceThreshold,
		fetcher,
		extractor.New(extractor.EbaySelectors, cfg.SearchURL),
		store,
		notifier,
		zl,
	)
	scheduler := usecase.NewScheduler(watcher, notifier, cfg.PollInterval, cfg.CycleTimeout, zl)

	// --- Ops Server ---
	var server *http.Server
	if cfg.OpsAddr != "" {
		server = &http.Server{
			Addr:         cfg.OpsAddr,
			Handler:      router.New(handler.NewHandler(store, watcher.Status(), zl), zl),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			zl.Info("starting ops server", zap.String("addr", cfg.OpsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error("ops server failed", zap.Error(err))
			}
		}()
	}

	announce(ctx, scheduler, cfg, zl)

	if err := scheduler.Run(ctx); err != nil {
		return err
	}

	zl.Info("shutting down")
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zl.Error("ops server forced to shutdown", zap.Error(err))
		}
	}
	return nil
}

// announce sends the liveness alert and then logs startup. A failed liveness check is logged;
// polling starts regardless.
func announce(ctx context.Context, scheduler *usecase.Scheduler, cfg *config.Config, zl *zap.Logger) {
	_ = scheduler.SendLivenessCheck(ctx)

	zl.Info("dealwatch starting",
		zap.String("search_url", cfg.SearchURL),
		zap.Float64("price_threshold", cfg.PriceThreshold),
		zap.String("fetch_mode", cfg.FetchMode),
		zap.String("store", cfg.StoreDriver),
	)
}

func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (repository.ListingRepository, error) {
	var store repository.ListingRepository
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pg, err := postgres.NewListingRepo(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		store = pg
	case config.StoreMemory:
		zl.Warn("using in-memory store; seen listings are lost on restart")
		store = memory.NewListingRepo()
	default:
		lite, err := sqlite.NewListingRepo(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = lite
	}
	zl.Info("listing store ready", zap.String("driver", cfg.StoreDriver))

	if cfg.RedisAddr == "" {
		return store, nil
	}
	cache := redis_adapter.NewSeenCache(
		redis_adapter.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB),
		redis_adapter.DefaultSeenKey,
	)
	if err := cache.Ping(ctx); err != nil {
		// The store alone is enough to dedupe; run without the cache.
		zl.Warn("redis unreachable, continuing without seen cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = cache.Close()
		return store, nil
	}
	zl.Info("redis seen cache enabled", zap.String("addr", cfg.RedisAddr))
	return usecase.WithSeenCache(store, cache, zl), nil
}

func newFetcher(cfg *config.Config, zl *zap.Logger) (repository.PageFetcher, func()) {
	if cfg.FetchMode == config.FetchModeBrowser {
		f := chromedp_fetcher.NewFetcher(cfg.FetchTimeout, zl)
		return f, func() { _ = f.Close() }
	}
	return httpfetch.NewFetcher(cfg.FetchTimeout), func() {}
}

func newNotifier(cfg *config.Config, zl *zap.Logger) repository.Notifier {
	if !cfg.SMSConfigured() {
		zl.Warn("twilio credentials missing, alerts will only be logged")
		return console.NewNotifier(cfg.AlertHeadline, zl)
	}
	return twilio.NewNotifier(twilio.Config{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioFromNumber,
		To:         cfg.TwilioToNumber,
		Headline:   cfg.AlertHeadline,
		RatePerSec: cfg.SMSRatePerSec,
	}, zl)
}
