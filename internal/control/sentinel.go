// Package control wires the resilience and monitoring components into one
// explicitly constructed engine with a Start/Stop lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/vietddude/sentinel/internal/core/config"
	"github.com/vietddude/sentinel/internal/core/worker"
	"github.com/vietddude/sentinel/internal/infra/breaker"
	redisclient "github.com/vietddude/sentinel/internal/infra/redis"
	"github.com/vietddude/sentinel/internal/infra/storage"
	"github.com/vietddude/sentinel/internal/infra/storage/memory"
	"github.com/vietddude/sentinel/internal/infra/storage/postgres"
	"github.com/vietddude/sentinel/internal/infra/telemetry"
	"github.com/vietddude/sentinel/internal/monitoring"
	"github.com/vietddude/sentinel/internal/resilience"
)

// Config holds the engine configuration.
type Config struct {
	Port     int
	Monitor  config.MonitorConfig
	Services map[string]resilience.ServiceConfig
	Rules    []config.RuleConfig
	Redis    redisclient.Config
	Database postgres.Config
}

// Sentinel is the process-level engine: error handler façade, monitor loop,
// HTTP surface, and retention worker.
type Sentinel struct {
	cfg      Config
	handler  *resilience.Handler
	registry *breaker.Registry
	monitor  *monitoring.Monitor
	server   *monitoring.Server
	pruner   *worker.Pruner
	cache    *redisclient.Cache
	db       *postgres.DB
	log      *slog.Logger

	cancelWorkers context.CancelFunc
}

// NewSentinel creates the engine with all dependencies initialized.
func NewSentinel(cfg Config) (*Sentinel, error) {
	log := slog.Default()

	// 1. Storage
	var alertRepo storage.AlertRepository
	var eventRepo storage.EventRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		alertRepo = postgres.NewAlertRepo(db)
		eventRepo = postgres.NewEventRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewStorage()
		alertRepo = memory.NewAlertRepo(store)
		eventRepo = memory.NewEventRepo(store)
		log.Info("Using memory storage")
	}

	// 2. Optional stale cache
	var cache *redisclient.Cache
	var staleCache resilience.StaleCache
	if cfg.Redis.URL != "" {
		c, err := redisclient.NewCache(cfg.Redis, log)
		if err != nil {
			log.Warn("Stale cache unavailable, fallback will use synthesized data", "error", err)
		} else {
			cache = c
			staleCache = c
		}
	}

	// 3. Monitoring pipeline
	sink := telemetry.NewSink()
	window := monitoring.NewEventWindow(cfg.Monitor.Window)
	recorder := monitoring.NewEventRecorder(window, eventRepo, log)
	engine := monitoring.NewEngine(window, alertRepo, sink, log)
	for _, rc := range cfg.Rules {
		engine.AddRule(rc.ToRule())
	}
	monitor := monitoring.NewMonitor(window, engine, sink, log)

	// 4. Resilience pipeline
	registry := breaker.NewRegistry(log)
	dispatcher := resilience.NewDispatcher(staleCache, sink, recorder, log)
	handler := resilience.NewHandler(dispatcher, registry, sink, log)
	for name, svc := range cfg.Services {
		handler.ConfigureService(name, svc)
	}

	return &Sentinel{
		cfg:      cfg,
		handler:  handler,
		registry: registry,
		monitor:  monitor,
		server:   monitoring.NewServer(monitor, cfg.Port),
		pruner:   worker.NewPruner(cfg.Monitor.RetentionPeriod, alertRepo, eventRepo),
		cache:    cache,
		db:       db,
		log:      log,
	}, nil
}

// Start launches the monitor loop, HTTP server, and retention worker.
func (s *Sentinel) Start(ctx context.Context) error {
	if err := s.monitor.Start(s.cfg.Monitor.Interval); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s.cancelWorkers = cancel
	go s.pruner.Start(workerCtx)

	go func() {
		s.log.Info("Monitoring server listening", "port", s.cfg.Port)
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Monitoring server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts everything down gracefully. New monitor ticks stop; in-flight
// alert notifications complete first.
func (s *Sentinel) Stop(ctx context.Context) error {
	s.monitor.Stop()
	if s.cancelWorkers != nil {
		s.cancelWorkers()
	}
	if err := s.server.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop monitoring server: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return nil
}

// Handler returns the error handler façade callers wrap operations with.
func (s *Sentinel) Handler() *resilience.Handler {
	return s.handler
}

// Monitor returns the monitor control surface.
func (s *Sentinel) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Breakers returns the circuit breaker registry.
func (s *Sentinel) Breakers() *breaker.Registry {
	return s.registry
}
