/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires the process together: database, trigger registry,
// materializer, orchestrator, watcher, HTTP surface and the optional event
// forwarder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/seda/internal/api"
	"github.com/friendsincode/seda/internal/config"
	"github.com/friendsincode/seda/internal/db"
	"github.com/friendsincode/seda/internal/eventbus"
	"github.com/friendsincode/seda/internal/events"
	"github.com/friendsincode/seda/internal/media"
	"github.com/friendsincode/seda/internal/models"
	"github.com/friendsincode/seda/internal/orchestrator"
	"github.com/friendsincode/seda/internal/playout"
	"github.com/friendsincode/seda/internal/schedule"
	"github.com/friendsincode/seda/internal/telemetry"
	"github.com/friendsincode/seda/internal/triggers"
	"github.com/friendsincode/seda/internal/watcher"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	bus       *events.Bus
	registry  *triggers.Registry
	mat       *schedule.Materializer
	player    *playout.GStreamer
	orch      *orchestrator.Orchestrator
	watcher   *watcher.Watcher
	forwarder *eventbus.Forwarder
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New builds a fully wired server. The initial schedule load happens here so
// the process starts with a populated live set.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	s.registry = triggers.NewRegistry()
	s.restoreManualTriggers()

	queue := schedule.NewQueueStore(database, s.logger)
	prober := media.NewFFProbe(s.cfg.FFProbeBin)
	s.mat = schedule.NewMaterializer(s.cfg.SchedulePath, s.cfg.MediaRoot, queue, prober, s.bus, s.logger)
	s.mat.ReloadAll(context.Background())

	s.player = playout.NewGStreamer(s.cfg.GStreamerBin, s.cfg.EspeakBin, s.bus, s.logger)
	s.DeferClose(s.player.Stop)

	s.orch = orchestrator.New(s.mat, s.registry, s.player, s.bus, s.cfg.Lookahead, s.logger)
	s.watcher = watcher.New(s.cfg.SchedulePath, s.cfg.PollInterval, s.orch, s.logger)

	if s.cfg.NATSURL != "" {
		forwarder, err := eventbus.NewForwarder(s.cfg.NATSURL, s.bus, s.logger)
		if err != nil {
			// Playback must not depend on the message broker being up.
			s.logger.Warn().Err(err).Str("url", s.cfg.NATSURL).Msg("event forwarder unavailable")
		} else {
			s.forwarder = forwarder
			s.DeferClose(forwarder.Close)
		}
	}

	s.api = api.New(database, s.orch, s.mat, s.registry, s.logger)
	return nil
}

// restoreManualTriggers reads persisted operator triggers back into the
// registry so a restart does not forget them.
func (s *Server) restoreManualTriggers() {
	var records []models.ManualTrigger
	if err := s.db.Find(&records).Error; err != nil {
		s.logger.Warn().Err(err).Msg("manual trigger restore failed")
		return
	}
	for _, record := range records {
		s.registry.AddOrReplace(record.Name, record.FiredAt, models.TriggerManual)
	}
	if len(records) > 0 {
		s.logger.Info().Int("triggers", len(records)).Msg("manual triggers restored")
	}
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	s.api.Routes(s.router)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("orchestrator loop exited")
		}
	}()

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := s.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("schedule watcher exited")
		}
	}()

	if s.forwarder != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			if err := s.forwarder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error().Err(err).Msg("event forwarder exited")
			}
		}()
	}

	// Metrics get their own listener so the operator surface and the scrape
	// surface can be firewalled separately.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	metricsServer := &http.Server{
		Addr:              s.cfg.MetricsBind,
		Handler:           metricsMux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("bind", s.cfg.MetricsBind).Msg("metrics listener exited")
		}
	}()
	s.DeferClose(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(ctx)
	})
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}
