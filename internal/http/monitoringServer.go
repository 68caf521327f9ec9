package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"picstash/internal/health"
)

// MonitoringServer serves the health probes on a separate listener so they
// stay reachable when the API listener is saturated.
type MonitoringServer struct {
	server  *http.Server
	checker *health.Checker
	wg      sync.WaitGroup
	log     zerolog.Logger
}

func NewMonitoringServer(checker *health.Checker, addr string, log zerolog.Logger) *MonitoringServer {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /monitoring/live", checker.LiveHandler)
	mux.HandleFunc("GET /monitoring/ready", checker.ReadyHandler)
	mux.HandleFunc("GET /monitoring/health", checker.HealthHandler)

	if addr == "" {
		addr = "localhost:3010"
	}

	return &MonitoringServer{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		checker: checker,
		log:     log,
	}
}

func (s *MonitoringServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("monitoring server started")
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *MonitoringServer) Shutdown(ctx context.Context) error {
	s.checker.Shutdown()
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
