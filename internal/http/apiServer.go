package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"picstash/internal/api"
)

type APIServer struct {
	server *http.Server
	wg     sync.WaitGroup
	log    zerolog.Logger
}

func NewAPIServer(handlers *api.API, addr string, log zerolog.Logger) *APIServer {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /search/{guid}", handlers.SearchUploadHandler)
	mux.HandleFunc("POST /compare/{guid}", handlers.CompareUploadHandler)
	mux.HandleFunc("GET /get/{guid}", handlers.GetSearchHandler)
	mux.HandleFunc("GET /get/{guid}/{number}", handlers.GetCompareHandler)
	mux.HandleFunc("GET /count/{guid}", handlers.CountHandler)

	if addr == "" {
		addr = ":3000"
	}

	return &APIServer{
		server: &http.Server{
			Addr:    addr,
			Handler: withAccessLog(log, mux),
		},
		log: log,
	}
}

// withAccessLog attaches the logger to every request context and emits one
// access line per request.
func withAccessLog(log zerolog.Logger, next http.Handler) http.Handler {
	h := hlog.NewHandler(log)
	accessLogger := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("request")
	})
	return h(accessLogger(next))
}

func (s *APIServer) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("API server started")
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	defer s.wg.Wait()
	return s.server.Shutdown(ctx)
}
