package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/spamguard/internal/spamguard/common/clock"
	"github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/config"
	"github.com/haukened/spamguard/internal/spamguard/gateways/httpapi"
	"github.com/haukened/spamguard/internal/spamguard/gateways/remote"
	"github.com/haukened/spamguard/internal/spamguard/gateways/transport"
	"github.com/haukened/spamguard/internal/spamguard/metrics"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/bloom"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/lru"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/parsers"
	"github.com/haukened/spamguard/internal/spamguard/services/scorer"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "spamguardd"
)

// Application holds all the components of the API server
type Application struct {
	config    *config.AppConfig
	transport transport.ServerTransport
	handler   http.Handler
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":            appName,
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.LogLevel,
		"address":        cfg.Addr(),
		"blocklist_url":  cfg.BlocklistURL,
		"disable_remote": cfg.DisableRemote,
		"cache_ttl":      cfg.BlocklistCacheTTL.String(),
	}, "Starting SpamGuard")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "SpamGuard stopped gracefully")
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()
	m := metrics.New()

	repo, err := buildBlocklist(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to build blocklist: %w", err)
	}

	scoring := scorer.NewScorer(scorer.Options{
		Blocklist: repo,
		Logger:    logger,
		Observer:  m,
	})

	router := httpapi.NewRouter(httpapi.Options{
		Scorer:      scoring,
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	})

	tr, err := transport.NewTransport(transport.TransportType(cfg.Transport), cfg.Addr(), cfg.ShutdownTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	return &Application{
		config:    cfg,
		transport: tr,
		handler:   router,
	}, nil
}

// buildBlocklist wires the curated list, the remote fetcher and the optional
// list cache into one repository.
func buildBlocklist(cfg *config.AppConfig, logger log.Logger, m *metrics.Metrics) (blocklist.Repository, error) {
	var fetcher blocklist.Fetcher
	if cfg.DisableRemote {
		log.Info(map[string]any{"disabled": true}, "Remote blocklist disabled")
	} else {
		parse, err := parsers.ForFormat(cfg.BlocklistFormat)
		if err != nil {
			return nil, err
		}
		fetcher = remote.NewFetcher(remote.Options{
			URL:      cfg.BlocklistURL,
			Timeout:  cfg.BlocklistTimeout,
			FPRate:   cfg.BloomFPRate,
			Parser:   parse,
			Bloom:    bloom.NewFactory(),
			Clock:    clock.RealClock{},
			Logger:   logger,
			Observer: m,
		})
	}

	cache := lru.New(cfg.BlocklistCacheSize, cfg.BlocklistCacheTTL)
	if cache.Stats().Enabled() {
		m.RegisterListCache(cache)
		log.Info(map[string]any{
			"type": "LRU",
			"size": cfg.BlocklistCacheSize,
			"ttl":  cfg.BlocklistCacheTTL.String(),
		}, "Remote list cache configured")
	}

	return blocklist.NewRepository(fetcher, cache, logger), nil
}

// Run starts the API server and blocks until context is cancelled
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.handler); err != nil {
		return fmt.Errorf("failed to start %s transport: %w", app.config.Transport, err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": app.config.Transport,
	}, "SpamGuard API started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	if err := app.transport.Stop(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info(nil, "Graceful shutdown completed")
	return nil
}
