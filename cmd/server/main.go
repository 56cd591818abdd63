package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adlytic/addecision/internal/analytics"
	"github.com/adlytic/addecision/internal/api"
	"github.com/adlytic/addecision/internal/config"
	"github.com/adlytic/addecision/internal/db"
	"github.com/adlytic/addecision/internal/geoip"
	"github.com/adlytic/addecision/internal/logic"
	"github.com/adlytic/addecision/internal/logic/frequency"
	"github.com/adlytic/addecision/internal/logic/ratelimit"
	"github.com/adlytic/addecision/internal/models"
	"github.com/adlytic/addecision/internal/observability"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observability.RegisterMetrics()
	metricsRegistry := observability.NewPrometheusRegistry()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TracingEndpoint, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	pg, err := db.InitPostgres(cfg.PostgresDSN, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime)
	if err != nil {
		return fmt.Errorf("failed to connect postgres: %w", err)
	}
	defer pg.Close()

	adDataStore := models.NewInMemoryAdDataStore()
	if err := db.LoadCatalog(pg, adDataStore); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// An empty REDIS_ADDR selects the in-process counter store. Single
	// instance deployments don't need Redis; counters just don't survive
	// restarts.
	var counterStore frequency.Store
	if cfg.RedisAddr != "" {
		redisStore, err := db.InitRedis(cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect redis: %w", err)
		}
		defer redisStore.Close()
		counterStore = frequency.NewRedisStore(redisStore)
	} else {
		logger.Info("using in-memory frequency store")
		counterStore = frequency.NewMemoryStore()
	}

	// The durable event log is analytics-only, so a missing ClickHouse DSN
	// disables it rather than failing startup.
	var eventLog frequency.EventLog
	if cfg.ClickHouseDSN != "" {
		eventStore, err := analytics.InitClickHouse(cfg.ClickHouseDSN)
		if err != nil {
			return fmt.Errorf("failed to connect clickhouse: %w", err)
		}
		defer eventStore.Close()
		eventLog = eventStore
	} else {
		logger.Info("no clickhouse dsn, frequency analytics disabled")
	}

	var geoSvc *geoip.GeoIP
	if cfg.GeoIPDB != "" {
		geoSvc, err = geoip.Init(cfg.GeoIPDB)
		if err != nil {
			logger.Warn("geoip unavailable, skipping geo enrichment", zap.Error(err))
			geoSvc = nil
		} else {
			defer func() { _ = geoSvc.Close() }()
		}
	}

	capService := frequency.NewCapService(counterStore, adDataStore, eventLog, metricsRegistry, cfg.FreqCapTimeout, logger)
	evaluator := logic.NewTargetingEvaluator(adDataStore, logger)
	engine := logic.NewDecisionEngine(evaluator, capService, metricsRegistry, logic.EngineOptions{
		FailOpen:   cfg.FreqCapFailOpen,
		DebugTrace: cfg.DebugTrace,
	}, logger)

	limiter := ratelimit.NewOrgLimiter(ratelimit.Config{
		Capacity:   cfg.RateLimitCapacity,
		RefillRate: cfg.RateLimitRefillRate,
		Enabled:    cfg.RateLimitEnabled,
	}, metricsRegistry)

	srvDeps := api.NewServer(logger, engine, adDataStore, pg, geoSvc, limiter, metricsRegistry, cfg)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      srvDeps.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Ad decision engine running", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	if cfg.ReloadInterval > 0 {
		ticker := time.NewTicker(cfg.ReloadInterval)
		go func() {
			for {
				select {
				case <-ticker.C:
					if err := srvDeps.Reload(); err != nil {
						logger.Error("auto reload", zap.Error(err))
					}
				case <-ctx.Done():
					ticker.Stop()
					return
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
