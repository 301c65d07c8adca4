// Package services – EnhanceService
//
// This file implements EnhanceService, the application-level component that
// owns enhancement sessions. Each authenticated user gets one pipeline,
// created lazily on first use; the pipeline carries that user's cooldown
// window and in-flight state, so two browser tabs of the same user share one
// session while different users never interfere.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include user identifiers and the outcome kind.
package services

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptpilot/go-prompt-backend/internal/enhance"
)

// GateFactory builds the cooldown gate for a new session. It exists so
// deployments can plug in the Redis-backed gate; a nil factory means each
// session gets the in-memory gate.
type GateFactory func(sessionID string) enhance.Gate

// EnhanceService coordinates per-user enhancement pipelines.
type EnhanceService struct {
	Gen      enhance.TextGenerator
	Timeout  time.Duration
	Config   enhance.GenerationConfig
	Cooldown time.Duration
	NewGate  GateFactory

	// Optional guard
	MaxPromptRunes int

	mu       sync.Mutex
	sessions map[string]*enhance.Pipeline
}

// NewEnhanceService constructs an EnhanceService around a text generator.
func NewEnhanceService(gen enhance.TextGenerator, timeout, cooldown time.Duration, cfg enhance.GenerationConfig) *EnhanceService {
	return &EnhanceService{
		Gen:      gen,
		Timeout:  timeout,
		Config:   cfg,
		Cooldown: cooldown,
		sessions: make(map[string]*enhance.Pipeline),
	}
}

// Enhance runs one submission for userID and returns the typed outcome.
// Validation failures, cooldown rejections, and model failures all come back
// as Outcome values; err is reserved for programming mistakes (empty userID).
func (s *EnhanceService) Enhance(ctx context.Context, userID, text, level string) (enhance.Outcome, error) {
	tr := otel.Tracer("services/EnhanceService")
	ctx, span := tr.Start(ctx, "Enhance",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("enhance.level", level),
		),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return enhance.Outcome{}, ErrNotLoggedIn
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(text) > s.MaxPromptRunes {
		return enhance.Outcome{
			ErrKind:    enhance.KindValidation,
			ErrMessage: "prompt is too long; please shorten it",
		}, nil
	}

	p := s.session(userID)
	out := p.Run(ctx, enhance.Request{
		Text:  text,
		Level: enhance.ParseComplexity(level),
	})

	if out.Success {
		span.SetAttributes(attribute.Bool("enhance.success", true))
	} else {
		span.SetAttributes(attribute.String("enhance.error_kind", string(out.ErrKind)))
	}
	return out, nil
}

// CooldownRemaining reports the time left before userID may submit again.
// Zero means the gate is open.
func (s *EnhanceService) CooldownRemaining(ctx context.Context, userID string) time.Duration {
	return s.session(userID).Cooldown(ctx)
}

// Progress reports the session's cosmetic progress value for UI polling.
func (s *EnhanceService) Progress(userID string) int {
	return s.session(userID).Progress()
}

// session returns the user's pipeline, creating it on first use.
func (s *EnhanceService) session(userID string) *enhance.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.sessions[userID]; ok {
		return p
	}
	var gate enhance.Gate
	if s.NewGate != nil {
		gate = s.NewGate(userID)
	} else {
		gate = enhance.NewCooldown(s.Cooldown)
	}
	p := enhance.NewPipeline(gate, s.Gen, s.Timeout, s.Config)
	s.sessions[userID] = p
	return p
}
