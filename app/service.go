// Package app wires configuration into a running scheduler service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/macmarek/scheduling-assistant/api/schedule"
	"github.com/macmarek/scheduling-assistant/config"
	coremetrics "github.com/macmarek/scheduling-assistant/core/metrics"
	coremon "github.com/macmarek/scheduling-assistant/core/monitoring"
	"github.com/macmarek/scheduling-assistant/core/scheduler"
	"github.com/macmarek/scheduling-assistant/core/scheduler/runlog"
	"github.com/macmarek/scheduling-assistant/infra/intake"
	"github.com/macmarek/scheduling-assistant/infra/logger"
	"github.com/macmarek/scheduling-assistant/infra/metrics"
	"github.com/macmarek/scheduling-assistant/infra/monitoring"
	"github.com/macmarek/scheduling-assistant/infra/mqtt"
	"github.com/macmarek/scheduling-assistant/internal/eventbus"
)

const drainTimeout = 5 * time.Second

// Service holds the scheduler and the components reporting on its runs.
type Service struct {
	Scheduler *scheduler.Scheduler
	Store     runlog.Store

	cfg       *config.Config
	sink      coremetrics.MetricsSink
	bus       *eventbus.Bus
	publisher *mqtt.PahoPublisher
	intake    *intake.Manager
	log       logger.Logger

	stopForward context.CancelFunc
	forwardDone <-chan struct{}
}

// New creates a Service from the configuration. When an MQTT broker is
// configured every completed run is published to it.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}
	bus := eventbus.New()
	sched, err := scheduler.NewScheduler(cfg.Scheduler, nil, sink, bus, logger.New("scheduler"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	sched.SetRunLog(store)

	svc := &Service{Scheduler: sched, Store: store, cfg: cfg, sink: sink, bus: bus, log: logg}
	if cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT, logger.New("mqtt_publisher"))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		ctx, cancel := context.WithCancel(context.Background())
		svc.stopForward = cancel
		svc.forwardDone = mqtt.StartRunForwarder(ctx, bus, pub, logg)

		if cfg.Intake.Enabled {
			in, err := intake.NewManager(cfg.MQTT, cfg.Intake, sched, nil)
			if err != nil {
				_ = svc.Close()
				return nil, fmt.Errorf("mqtt intake: %w", err)
			}
			svc.intake = in
		}
	}
	return svc, nil
}

// Handler routes the HTTP API and the metrics endpoint.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/schedule", schedule.NewScheduleHandler(s.Scheduler, s.cfg.API.Token, int64(s.cfg.API.MaxBodyKB)*1024))
	mux.Handle("/api/runs", schedule.NewRunsHandler(s.Store, s.cfg.API.Token))
	mux.Handle("/metrics", metrics.Handler(nil))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Run serves the HTTP API, and the dedicated Prometheus listener when
// configured, until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.intake != nil {
		go func() {
			if err := s.intake.Start(ctx); err != nil {
				s.log.Errorf("mqtt intake: %v", err)
			}
		}()
	}
	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
	}()
	s.log.Infof("scheduler API on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close flushes pending run events and releases resources held by the
// service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.forwardDone != nil {
		select {
		case <-s.forwardDone:
		case <-time.After(drainTimeout):
			s.log.Warnf("mqtt forwarder did not drain in %s", drainTimeout)
		}
		s.stopForward()
	}
	if s.publisher != nil {
		s.publisher.Disconnect()
	}
	closeSinks(s.sink)
	coremon.Flush(drainTimeout)
	return s.Store.Close()
}

func closeSinks(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			closeSinks(inner)
		}
	case interface{ Close() }:
		v.Close()
	}
}
