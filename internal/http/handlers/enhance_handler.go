// Enhancement HTTP handlers.
//
// This file exposes REST endpoints for the prompt enhancement pipeline:
//   - POST /enhance            (run one enhancement for the current user)
//   - GET  /enhance/cooldown   (remaining cooldown + progress, for UI polling)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate pipeline outcomes into HTTP responses. Every pipeline failure
// comes back as a typed outcome, never as an uncaught error, so the response
// always carries a stable error_kind the client can branch on.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
	"github.com/promptpilot/go-prompt-backend/internal/enhance"
	"github.com/promptpilot/go-prompt-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// EnhanceService defines the enhancement operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type EnhanceService interface {
	// Enhance runs one submission for userID and returns the typed outcome.
	Enhance(ctx context.Context, userID, text, level string) (enhance.Outcome, error)
	// CooldownRemaining reports the time left before userID may submit again.
	CooldownRemaining(ctx context.Context, userID string) time.Duration
	// Progress reports the session's cosmetic progress value (0-100).
	Progress(userID string) int
}

// PromptService defines saved-prompt lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type PromptService interface {
	// Save persists an (input, output) pair for userID with an optional label.
	Save(ctx context.Context, userID, label, input, output string) (*domain.Prompt, error)
	// ListPage returns a page of the user's saved prompts and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Prompt, int64, error)
	// Delete removes one saved prompt owned by userID.
	Delete(ctx context.Context, userID, promptID string) error
}

// MailService defines transactional email operations consumed by HTTP handlers.
type MailService interface {
	// SendWelcome sends the one-time welcome email to a new user.
	SendWelcome(ctx context.Context, userID, email, name string, isNewUser bool) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for enhancement, saved prompts, and mail.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	enhanceSvc EnhanceService
	promptSvc  PromptService
	mailSvc    MailService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(enhanceSvc EnhanceService, promptSvc PromptService, mailSvc MailService) *Handlers {
	return &Handlers{enhanceSvc: enhanceSvc, promptSvc: promptSvc, mailSvc: mailSvc}
}

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). If absent, it falls back to "X-User-ID" header (dev/test mode).
// An empty return means no user is present; handlers reject with 401.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

//
// DTOs
//

// EnhanceRequest is the JSON payload for running an enhancement.
type EnhanceRequest struct {
	// Text is the raw prompt to enhance. It must be non-empty.
	Text string `json:"text" binding:"required,min=1" example:"story लिखो about a dragon"`
	// Complexity selects the preset: basic, intermediate, or advanced.
	// Unknown or empty values fall back to intermediate.
	Complexity string `json:"complexity" example:"intermediate"`
}

// EnhanceResponse is the JSON envelope for an enhancement outcome, success or
// failure. On failure, ErrorKind is a stable snake_case discriminator and
// ErrorMessage is safe to show to users.
type EnhanceResponse struct {
	Success      bool   `json:"success"`
	Text         string `json:"text,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty" example:"cooldown_active"`
	ErrorMessage string `json:"error_message,omitempty"`
	// RetryAfterSeconds is set only for cooldown rejections.
	RetryAfterSeconds int `json:"retry_after_seconds,omitempty"`
}

// CooldownResponse reports session state for UI polling.
type CooldownResponse struct {
	// RemainingSeconds until the next submission is allowed; 0 means open.
	RemainingSeconds int `json:"remaining_seconds"`
	// Progress is the cosmetic 0-100 progress of the in-flight enhancement.
	Progress int `json:"progress"`
}

// outcomeStatus maps a pipeline error kind to the HTTP status the envelope is
// written with. The envelope itself is identical across statuses so clients
// can branch on error_kind alone.
func outcomeStatus(kind enhance.ErrorKind) int {
	switch kind {
	case enhance.KindValidation, enhance.KindBadRequest:
		return http.StatusBadRequest
	case enhance.KindCooldown, enhance.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case enhance.KindInFlight:
		return http.StatusConflict
	case enhance.KindTimeout:
		return http.StatusGatewayTimeout
	case enhance.KindInvalidCredentials, enhance.KindAuthFailure, enhance.KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

//
// Handlers
//

// Enhance godoc
// @ID          enhancePrompt
// @Summary     Enhance a prompt
// @Description Runs the enhancement pipeline (translate, classify, generate) for the
// @Description current user. Failures return the same envelope with a stable error_kind.
// @Tags        Enhance
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (dev fallback)"  example(user123)
// @Param       body       body    handlers.EnhanceRequest  true  "Enhancement payload"
//
// @Success     200  {object}  handlers.EnhanceResponse  "Enhanced prompt"
// @Failure     400  {object}  handlers.EnhanceResponse  "Validation failure"
// @Failure     401  {object}  handlers.ErrorResponse    "No user"
// @Failure     409  {object}  handlers.EnhanceResponse  "Enhancement already in flight"
// @Failure     429  {object}  handlers.EnhanceResponse  "Cooldown active"
// @Failure     502  {object}  handlers.EnhanceResponse  "Upstream model failure"
// @Failure     504  {object}  handlers.EnhanceResponse  "Model call timed out"
// @Router      /enhance [post]
func (h *Handlers) Enhance(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to enhance prompts")
		return
	}

	var req EnhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	out, err := h.enhanceSvc.Enhance(c.Request.Context(), uid, req.Text, req.Complexity)
	if err != nil {
		switch err {
		case services.ErrNotLoggedIn:
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to enhance prompts")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeEnhanceFailed, err.Error())
		}
		return
	}

	if out.Success {
		ok(c, http.StatusOK, EnhanceResponse{Success: true, Text: out.Text})
		return
	}

	resp := EnhanceResponse{
		Success:      false,
		ErrorKind:    string(out.ErrKind),
		ErrorMessage: out.ErrMessage,
	}
	if out.ErrKind == enhance.KindCooldown && out.Retry > 0 {
		secs := int(out.Retry.Round(time.Second) / time.Second)
		resp.RetryAfterSeconds = secs
		c.Header("Retry-After", strconv.Itoa(secs))
	}
	ok(c, outcomeStatus(out.ErrKind), resp)
}

// Cooldown godoc
// @ID          enhanceCooldown
// @Summary     Session cooldown and progress
// @Description Returns the remaining cooldown and in-flight progress for the current user.
// @Tags        Enhance
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (dev fallback)"  example(user123)
//
// @Success     200  {object}  handlers.CooldownResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No user"
// @Router      /enhance/cooldown [get]
func (h *Handlers) Cooldown(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to enhance prompts")
		return
	}

	remaining := h.enhanceSvc.CooldownRemaining(c.Request.Context(), uid)
	ok(c, http.StatusOK, CooldownResponse{
		RemainingSeconds: int(remaining.Round(time.Second) / time.Second),
		Progress:         h.enhanceSvc.Progress(uid),
	})
}
