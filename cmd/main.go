package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/availability"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/cache"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/config"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/logging"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/metrics"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/server"
	"github.com/ZekSurf/Zeks-SurfSchool-sub000/internal/upstream"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to service configuration file")
		envPrefix  = flag.String("env-prefix", "SURFSCHOOL", "environment variable prefix")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*envPrefix, *configFile)
	cfg, err := loader.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Logging)
	if err != nil {
		log.Fatalf("failed to configure logger: %v", err)
	}

	displayZone, err := time.LoadLocation(cfg.Display.Timezone)
	if err != nil {
		logger.Error("unknown display timezone, falling back to UTC",
			slog.String("timezone", cfg.Display.Timezone), slog.Any("error", err))
		displayZone = time.UTC
	}

	store := buildCacheStore(logger.With(slog.String("agent", "cache_factory")), cfg.Cache)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := store.Close(shutdownCtx); err != nil {
			logger.Error("cache shutdown failed", slog.Any("error", err))
		}
	}()

	promRegistry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(promRegistry)

	epochs := availability.NewKeyEpochs()
	service := availability.NewService(availability.ServiceOptions{
		Store:   store,
		Fetcher: upstream.NewClient(cfg.Upstream, logger.With(slog.String("agent", "upstream"))),
		Epochs:  epochs,
		Logger:  logger.With(slog.String("agent", "availability")),
		Metrics: recorder,
	})
	invalidator := availability.NewInvalidator(store, epochs,
		logger.With(slog.String("agent", "invalidation")), recorder)
	resolver := availability.NewResolver(store, displayZone,
		logger.With(slog.String("agent", "resolver")), recorder)
	reporter := availability.NewReporter(store)

	sweeper := cache.NewSweeper(store, cfg.Cache.SweepInterval(),
		logger.With(slog.String("agent", "sweeper")))
	go sweeper.Run(ctx)

	handler := server.NewRouter(server.RouterOptions{
		Logger:            logger.With(slog.String("agent", "http")),
		CorrelationHeader: cfg.Server.Logging.CorrelationHeader,
		Availability:      service,
		Slots:             resolver,
		Invalidator:       invalidator,
		Reporter:          reporter,
		Store:             store,
		Metrics:           recorder.Handler(),
	})

	srv, err := server.New(cfg, logger, handler)
	if err != nil {
		logger.Error("unable to construct server", slog.Any("error", err))
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server terminated unexpectedly", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

// buildCacheStore selects the configured backend, falling back to the
// in-process store when the shared backend cannot be reached so a cache
// outage degrades performance instead of availability.
func buildCacheStore(logger *slog.Logger, cfg config.CacheConfig) cache.Store {
	ttl := cfg.TTL()
	backend := strings.TrimSpace(strings.ToLower(cfg.Backend))
	switch backend {
	case "", "memory":
		if logger != nil {
			logger.Info("using memory availability cache", slog.Duration("ttl", ttl))
		}
		return cache.NewMemory(ttl)
	case "valkey":
		valkeyStore, err := cache.NewValkey(cache.ValkeyConfig{
			Address:   cfg.Valkey.Address,
			Username:  cfg.Valkey.Username,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.KeyPrefix,
			TTL:       ttl,
			TLS: cache.ValkeyTLSConfig{
				Enabled: cfg.Valkey.TLS.Enabled,
				CAFile:  cfg.Valkey.TLS.CAFile,
			},
		})
		if err != nil {
			if logger != nil {
				logger.Error("valkey cache initialization failed", slog.Any("error", err))
				logger.Info("falling back to memory cache")
			}
			return cache.NewMemory(ttl)
		}
		if logger != nil {
			logger.Info("using valkey availability cache", slog.String("address", cfg.Valkey.Address))
		}
		return valkeyStore
	default:
		if logger != nil {
			logger.Warn("unsupported cache backend, defaulting to memory", slog.String("backend", cfg.Backend))
		}
		return cache.NewMemory(ttl)
	}
}
