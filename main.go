package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"picstash/internal/api"
	"picstash/internal/config"
	"picstash/internal/filestore"
	"picstash/internal/health"
	internalhttp "picstash/internal/http"
	"picstash/internal/retriever"
	"picstash/internal/transform"
	"picstash/internal/uploader"
)

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	store, err := filestore.NewDiskStore(cfg.UploadPath)
	if err != nil {
		return err
	}

	uploads := uploader.New(store, transform.New(), log)
	photos := retriever.New(ctx, store, cfg.CountCacheTTL, log)
	handlers := api.New(uploads, photos, cfg.MaxFileSize, cfg.MinComparePhotos, cfg.MaxComparePhotos)
	checker := health.NewChecker(health.StoreChecks(store)...)

	apiServer := internalhttp.NewAPIServer(handlers, cfg.ListenAddr, log)
	monServer := internalhttp.NewMonitoringServer(checker, cfg.MonitoringAddr, log)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(apiServer.Start)
	g.Go(monServer.Start)

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := monServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("monitoring server shutdown error")
		}
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown error")
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log := zerolog.New(os.Stderr)
		log.Fatal().Err(err).Msg("application error")
	}
}
