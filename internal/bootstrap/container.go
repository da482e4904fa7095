// Package bootstrap assembles the studio's object graph with samber/do.
//
// Providers are lazy: nothing is built until main invokes the engine, so
// tracing can be installed first and the GORM plugin picks it up.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/ai"
	"github.com/tbourn/wolfoman-studio/internal/config"
	httpapi "github.com/tbourn/wolfoman-studio/internal/http"
	"github.com/tbourn/wolfoman-studio/internal/realtime"
	"github.com/tbourn/wolfoman-studio/internal/repo"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// BuildContainer registers every provider. cfg is supplied by the caller so
// configuration errors surface before the graph is built.
//
// Behavior:
//   - The database is opened, traced (when OTEL is enabled) and migrated
//     on first use.
//   - The store seeds demo data when SEED_DEMO_DATA is set and the
//     database is empty.
//   - An AI service without a token is still provided; replies then come
//     from the local fallback.
//   - The realtime hub, handler and server share one Responder with the
//     HTTP routes.
func BuildContainer(cfg config.Config) *do.Injector {
	inj := do.New()

	do.ProvideValue(inj, &cfg)

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		db, err := repo.OpenInMemory("studio")
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if cfg.OTEL.Enabled {
			if err := repo.EnableTracing(db); err != nil {
				log.Warn().Err(err).Msg("gorm tracing plugin not registered")
			}
		}
		if err := repo.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return db, nil
	})

	// Store
	do.Provide(inj, func(i *do.Injector) (*services.Store, error) {
		cfg := do.MustInvoke[*config.Config](i)
		s, err := services.NewStore(do.MustInvoke[*gorm.DB](i))
		if err != nil {
			return nil, err
		}
		if cfg.SeedDemoData {
			if err := s.SeedDemoData(context.Background()); err != nil {
				return nil, fmt.Errorf("seed demo data: %w", err)
			}
			log.Info().Msg("demo data seeded")
		}
		return s, nil
	})

	// AI
	do.Provide(inj, func(i *do.Injector) (*ai.Service, error) {
		cfg := do.MustInvoke[*config.Config](i)
		svc := ai.New(cfg.AI)
		if !svc.IsConfigured() {
			log.Warn().Msg("GITHUB_TOKEN not set, AI replies use the local fallback")
		}
		return svc, nil
	})
	do.Provide(inj, func(i *do.Injector) (*ai.Responder, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return ai.NewResponder(do.MustInvoke[*ai.Service](i), ai.NewFallback(cfg.AI.FallbackSeed)), nil
	})

	// Realtime
	do.Provide(inj, func(i *do.Injector) (*realtime.Hub, error) {
		return realtime.NewHub(), nil
	})
	do.Provide(inj, func(i *do.Injector) (*realtime.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rt := cfg.Realtime
		return realtime.NewHandler(
			do.MustInvoke[*realtime.Hub](i),
			do.MustInvoke[*services.Store](i),
			do.MustInvoke[*ai.Responder](i),
			realtime.WithDelay(realtime.RandomDelay(rt.ReplyDelay, rt.ReplyJitter, cfg.AI.FallbackSeed)),
			realtime.WithReplyTimeout(rt.ReplyTimeout),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (*realtime.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return realtime.NewServer(
			do.MustInvoke[*realtime.Hub](i),
			do.MustInvoke[*realtime.Handler](i),
			cfg.Realtime,
			cfg.CORS.AllowedOrigins,
		), nil
	})

	// HTTP
	do.Provide(inj, func(i *do.Injector) (*gin.Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		r := gin.New()
		httpapi.RegisterRoutes(r, httpapi.Deps{
			Config:    *cfg,
			Store:     do.MustInvoke[*services.Store](i),
			Assistant: do.MustInvoke[*ai.Responder](i),
			Realtime:  do.MustInvoke[*realtime.Server](i),
		})
		return r, nil
	})

	return inj
}

// Close cancels pending AI replies, disconnects every realtime client and
// closes the database. Call it after the HTTP server has stopped.
func Close(inj *do.Injector) {
	if h, err := do.Invoke[*realtime.Handler](inj); err == nil {
		h.Close()
	}
	if hub, err := do.Invoke[*realtime.Hub](inj); err == nil {
		hub.Close()
	}
	if db, err := do.Invoke[*gorm.DB](inj); err == nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
