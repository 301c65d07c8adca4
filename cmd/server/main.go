// Command server starts the PromptPilot HTTP backend.
//
// Startup order:
//  1. Load .env (best effort) and the validated configuration.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Initialize OpenTelemetry tracing (OTLP gRPC) when enabled.
//  4. Open SQLite and run migrations.
//  5. Build the Gemini client, optional Redis cooldown store, and SMTP sender.
//  6. Wire routes and serve with sane HTTP timeouts and graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/promptpilot/go-prompt-backend/internal/config"
	"github.com/promptpilot/go-prompt-backend/internal/enhance"
	"github.com/promptpilot/go-prompt-backend/internal/gemini"
	httpapi "github.com/promptpilot/go-prompt-backend/internal/http"
	"github.com/promptpilot/go-prompt-backend/internal/http/middleware"
	"github.com/promptpilot/go-prompt-backend/internal/observability"
	"github.com/promptpilot/go-prompt-backend/internal/repo"
	"github.com/promptpilot/go-prompt-backend/internal/services"
	"github.com/promptpilot/go-prompt-backend/internal/store"
	"github.com/promptpilot/go-prompt-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	gen, err := gemini.New(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("gemini client failed")
	}

	auth, err := middleware.NewAuth(ctx, cfg.Auth.Issuer, cfg.Auth.ClientID)
	if err != nil {
		log.Fatal().Err(err).Str("issuer", cfg.Auth.Issuer).Msg("oidc discovery failed")
	}
	if cfg.Auth.Issuer == "" {
		log.Warn().Msg("no OIDC issuer configured; trusting X-User-ID header")
	}

	deps := httpapi.Deps{
		DB:   db,
		Gen:  gen,
		Auth: auth,
	}

	// Distributed cooldowns when Redis is configured; in-memory otherwise.
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis ping failed")
		}
		deps.NewGate = func(sessionID string) enhance.Gate {
			return store.NewRedisGate(rdb, sessionID, cfg.Enhance.Cooldown)
		}
		defer rdb.Close()
	}

	if cfg.SMTP.Host != "" {
		deps.Sender = &services.SMTPSender{
			Addr:     fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port),
			Host:     cfg.SMTP.Host,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}
	} else {
		log.Warn().Msg("no SMTP host configured; welcome emails disabled")
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
