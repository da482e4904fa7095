// Package httpapi wires the HTTP transport (Gin) to the store, the AI
// responder and the realtime server. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging with redaction, panic recovery, metrics,
// idempotency, rate limiting, CORS, security headers and compression.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/wolfoman-studio/internal/config"
	"github.com/tbourn/wolfoman-studio/internal/docs"
	"github.com/tbourn/wolfoman-studio/internal/http/handlers"
	"github.com/tbourn/wolfoman-studio/internal/http/middleware"
	"github.com/tbourn/wolfoman-studio/internal/realtime"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// Deps is everything the router needs. Realtime may be nil, in which case
// the WebSocket endpoint is not mounted.
type Deps struct {
	Config    config.Config
	Store     *services.Store
	Assistant handlers.Assistant
	Realtime  *realtime.Server
}

// RegisterRoutes attaches all middleware and endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID, then Identity (X-User-ID)
//  3. RedactingLogger: request-scoped logger with PII scrubbing
//  4. Recovery: capture panics after the logger exists
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiting so replays bypass it)
//  8. Rate limiter per user or IP
//  9. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	wsPath := cfg.Realtime.Path
	if wsPath == "" || wsPath == "/" {
		wsPath = "/ws"
	}
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key", "X-GitHub-Token"},
	}))
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics(wsPath))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var lookup middleware.IdempotencyLookup
	if d.Store != nil {
		lookup = d.Store.HasReplay
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByScope(),
		wsPath, "/health", "/metrics")
	r.Use(rl.Handler())

	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderUserID, middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// ACAO: * even without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Hijacked and streamed responses must not be compressed.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{wsPath, "/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if d.Realtime != nil {
		r.GET(wsPath, d.Realtime.Handle)
	}

	if d.Store == nil || d.Assistant == nil {
		return
	}
	h := handlers.New(d.Store, d.Assistant, handlers.Options{IdempotencyTTL: cfg.IdempotencyTTL})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		auth := api.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)

		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)

		api.GET("/projects", h.ListProjects)
		api.GET("/projects/:id", h.GetProject)
		api.POST("/projects", h.CreateProject)
		api.PUT("/projects/:id", h.UpdateProject)
		api.DELETE("/projects/:id", h.DeleteProject)

		api.GET("/messages", h.ListMessages)
		api.POST("/messages", h.CreateMessage)

		// GET uses the project id, PUT and DELETE the membership id.
		api.GET("/teams/:projectId", h.ListTeam)
		api.POST("/teams", h.AddTeamMember)
		api.PUT("/teams/:id", h.UpdateTeamMember)
		api.DELETE("/teams/:id", h.RemoveTeamMember)

		api.GET("/deployments", h.ListDeployments)
		api.POST("/deployments", h.CreateDeployment)
		api.PUT("/deployments/:id", h.UpdateDeployment)

		api.GET("/activities", h.ListActivities)
		api.GET("/analytics/dashboard", h.Dashboard)
		api.GET("/analytics/project-progress", h.ProjectProgress)

		api.POST("/ai/chat", h.AssistChat)
		api.POST("/ai/generate-code", h.AssistCode)
		api.POST("/chat", h.Chat)
		api.POST("/generate-code", h.GenerateCode)
		api.GET("/ai-status", h.AIStatus)
	}
}

// limitBody caps the request body at maxBytes. Reads past the cap error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
