// Command server runs the WolfOmanAI Studio backend: the REST API, the
// realtime WebSocket endpoint and the background idempotency purge.
//
// Lifecycle:
//  1. Load configuration (a .env file is optional) and set up logging.
//  2. Install tracing, then build the object graph so GORM picks it up.
//  3. Serve until SIGINT/SIGTERM or a listener error.
//  4. Drain HTTP, close realtime clients and the database, flush traces.
package main

//	@title			WolfOmanAI Studio API
//	@version		1.0
//	@description	REST and realtime backend for the WolfOmanAI developer studio.
//	@schemes		http https
//	@BasePath		/api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"

	"github.com/tbourn/wolfoman-studio/internal/bootstrap"
	"github.com/tbourn/wolfoman-studio/internal/config"
	"github.com/tbourn/wolfoman-studio/internal/observability"
	"github.com/tbourn/wolfoman-studio/internal/services"
	"github.com/tbourn/wolfoman-studio/internal/sysutil"
)

// Shutdown budget and idempotency purge cadence.
const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, os.Stderr)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	version := sysutil.Version()
	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, observability.Identity{
		Version:     version,
		Environment: cfg.GinMode,
	})
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	inj := bootstrap.BuildContainer(cfg)
	engine, err := do.Invoke[*gin.Engine](inj)
	if err != nil {
		log.Fatal().Err(err).Msg("build application")
	}
	store := do.MustInvoke[*services.Store](inj)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go purgeIdempotency(ctx, store)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("api", cfg.APIBasePath).
			Str("ws", cfg.Realtime.Path).
			Bool("swagger", cfg.SwaggerEnabled).
			Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("listen failed")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown; the hub
	// closes them afterwards.
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	bootstrap.Close(inj)
	if err := shutdownTracing(sctx); err != nil {
		log.Error().Err(err).Msg("tracer shutdown")
	}
	log.Info().Msg("server exited")
}

// purgeIdempotency drops expired idempotency records until ctx ends.
func purgeIdempotency(ctx context.Context, store *services.Store) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.PurgeIdempotency(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("idempotency purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency records removed")
			}
		}
	}
}
