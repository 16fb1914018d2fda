package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testwire/trx-reporter/metrics"
)

// Config carries the listen addresses and the reporter state the progress
// endpoints serve.
type Config struct {
	HealthzAddr  string
	MetricsAddr  string
	ProgressAddr string
	Progress     ProgressSource
}

type Service struct {
	Healthz  *HealthzServer
	Metrics  *MetricsServer
	Progress *ProgressServer
}

func New() *Service {
	s := &Service{
		Healthz:  &HealthzServer{},
		Metrics:  &MetricsServer{},
		Progress: &ProgressServer{},
	}
	return s
}

func (s *Service) Start(ctx context.Context, cfg Config) {
	log.Info("service starting")

	go func() {
		log.Info("starting healthz server", "addr", cfg.HealthzAddr)
		if err := s.Healthz.Start(ctx, cfg.HealthzAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting healthz server", "err", err)
			metrics.RecordErrorDetails("error starting healthz server", err)
		}
	}()

	go func() {
		log.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := s.Metrics.Start(ctx, cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting metrics server", "err", err)
			metrics.RecordErrorDetails("error starting metrics server", err)
		}
	}()

	go func() {
		log.Info("starting progress server", "addr", cfg.ProgressAddr)
		if err := s.Progress.Start(ctx, cfg.ProgressAddr, cfg.Progress); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting progress server", "err", err)
			metrics.RecordErrorDetails("error starting progress server", err)
		}
	}()

	log.Info("service started")
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	_ = s.Healthz.Shutdown()
	log.Info("healthz stopped")

	_ = s.Metrics.Shutdown()
	log.Info("metrics stopped")

	_ = s.Progress.Shutdown()
	log.Info("progress stopped")

	log.Info("service stopped")
}
