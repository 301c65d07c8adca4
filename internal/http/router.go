// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and rate
// limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/promptpilot/go-prompt-backend/internal/config"
	"github.com/promptpilot/go-prompt-backend/internal/domain"
	"github.com/promptpilot/go-prompt-backend/internal/enhance"
	"github.com/promptpilot/go-prompt-backend/internal/http/handlers"
	"github.com/promptpilot/go-prompt-backend/internal/http/middleware"
	"github.com/promptpilot/go-prompt-backend/internal/repo"
	"github.com/promptpilot/go-prompt-backend/internal/services"
)

// promptRepoShim adapts the repository free functions to the
// services.PromptRepo interface expected by the PromptService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type promptRepoShim struct{}

// CreatePrompt proxies repo.CreatePrompt.
func (promptRepoShim) CreatePrompt(ctx context.Context, db *gorm.DB, userID, label, input, output string) (*domain.Prompt, error) {
	return repo.CreatePrompt(ctx, db, userID, label, input, output)
}

// ListPrompts proxies repo.ListPrompts.
func (promptRepoShim) ListPrompts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Prompt, error) {
	return repo.ListPrompts(ctx, db, userID)
}

// GetPrompt proxies repo.GetPrompt.
func (promptRepoShim) GetPrompt(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Prompt, error) {
	return repo.GetPrompt(ctx, db, id, userID)
}

// DeletePrompt proxies repo.DeletePrompt.
func (promptRepoShim) DeletePrompt(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeletePrompt(ctx, db, id, userID)
}

// CountPrompts proxies repo.CountPrompts (pagination support).
func (promptRepoShim) CountPrompts(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountPrompts(ctx, db, userID)
}

// ListPromptsPage proxies repo.ListPromptsPage (pagination support).
func (promptRepoShim) ListPromptsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Prompt, error) {
	return repo.ListPromptsPage(ctx, db, userID, offset, limit)
}

// welcomeRepoShim adapts the repository free functions to services.WelcomeRepo.
type welcomeRepoShim struct{}

// HasWelcomeEmail proxies repo.HasWelcomeEmail.
func (welcomeRepoShim) HasWelcomeEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	return repo.HasWelcomeEmail(ctx, db, email)
}

// RecordWelcomeEmail proxies repo.RecordWelcomeEmail.
func (welcomeRepoShim) RecordWelcomeEmail(ctx context.Context, db *gorm.DB, userID, email string) (*domain.WelcomeEmail, error) {
	return repo.RecordWelcomeEmail(ctx, db, userID, email)
}

// Deps carries the injected collaborators RegisterRoutes wires together.
type Deps struct {
	DB   *gorm.DB
	Gen  enhance.TextGenerator
	Auth *middleware.Auth
	// NewGate optionally replaces the in-memory cooldown gate per session
	// (e.g., a Redis-backed gate for multi-instance deployments).
	NewGate services.GateFactory
	// Sender delivers transactional mail; nil disables the welcome endpoint's
	// transport (sends fail with a mail error).
	Sender services.Sender
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Gzip compression
//  7. Metrics
//  8. Auth (identity before idempotency and rate limiting)
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per user/IP, bypass on replay)
//  11. CORS and Security headers
func RegisterRoutes(r *gin.Engine, cfg config.Config, deps Deps) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Compress responses (history pages are highly compressible)
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 7) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 8) Authentication (OIDC bearer tokens; dev header fallback)
	if deps.Auth != nil {
		r.Use(deps.Auth.Handler())
	}

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Scope:  "prompts",
			MaxLen: 200,
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 10) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 11) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
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
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/adapters
	enhanceSvc := services.NewEnhanceService(
		deps.Gen,
		cfg.Gemini.Timeout,
		cfg.Enhance.Cooldown,
		enhance.GenerationConfig{
			Temperature:     float32(cfg.Gemini.Temperature),
			TopK:            int32(cfg.Gemini.TopK),
			TopP:            float32(cfg.Gemini.TopP),
			MaxOutputTokens: int32(cfg.Gemini.MaxOutputTokens),
		},
	)
	enhanceSvc.NewGate = deps.NewGate
	enhanceSvc.MaxPromptRunes = cfg.Enhance.MaxPromptRunes

	promptSvc := services.NewPromptService(db, promptRepoShim{})
	mailSvc := services.NewMailService(db, welcomeRepoShim{}, deps.Sender, cfg.AppURL)

	h := handlers.New(enhanceSvc, promptSvc, mailSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Enhancement
		api.POST("/enhance", h.Enhance)
		api.GET("/enhance/cooldown", h.Cooldown)

		// Saved prompts
		api.POST("/prompts", h.SavePrompt)
		api.GET("/prompts", h.ListPrompts)
		api.DELETE("/prompts/:id", h.DeletePrompt)

		// Transactional mail
		api.POST("/welcome-email", h.SendWelcomeEmail)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
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
