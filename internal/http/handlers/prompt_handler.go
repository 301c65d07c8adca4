// Saved-prompt HTTP handlers.
//
// This file exposes REST endpoints for the user's prompt history:
//   - POST   /prompts        (explicitly save an input/output pair)
//   - GET    /prompts        (list, paginated, ETag support)
//   - DELETE /prompts/{id}   (delete one saved prompt, owner only)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (line endings, excessive blank lines)
//   - delegate to application services (PromptService)
//   - implement conditional responses (ETag) and idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// save exists for (user, "prompts", key), the handler returns the recorded
// prompt and sets `Idempotency-Replayed: true`.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
	"github.com/promptpilot/go-prompt-backend/internal/http/middleware"
	"github.com/promptpilot/go-prompt-backend/internal/repo"
	"github.com/promptpilot/go-prompt-backend/internal/services"
	"github.com/promptpilot/go-prompt-backend/internal/utils"
)

// idemScopePrompts is the idempotency scope for prompt saves; records are
// keyed (user_id, scope, key).
const idemScopePrompts = "prompts"

//
// DTOs
//

// SavePromptRequest is the JSON payload for saving a prompt pair.
type SavePromptRequest struct {
	// Label optionally names the saved prompt; a title-cased label is derived
	// from the input when empty.
	Label string `json:"label" example:"Dragon Story"`
	// Input is the original prompt text. It must be non-empty.
	Input string `json:"input" binding:"required,min=1" example:"write a story about a dragon"`
	// Output is the enhanced prompt text. It must be non-empty.
	Output string `json:"output" binding:"required,min=1"`
}

// SavePromptResponse is the JSON envelope for a newly saved prompt.
type SavePromptResponse struct {
	Prompt *domain.Prompt `json:"prompt"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListPromptsResponse wraps a page of saved prompts and pagination information.
type ListPromptsResponse struct {
	Prompts    []domain.Prompt `json:"prompts"`
	Pagination Pagination      `json:"pagination"`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeText normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

//
// Handlers
//

// SavePrompt godoc
// @ID          savePrompt
// @Summary     Save a prompt pair
// @Description Persists an (input, output) pair for the current user.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Prompts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (dev fallback)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SavePromptRequest  true  "Prompt pair payload"
//
// @Success     201  {object}  handlers.SavePromptResponse  "Saved prompt"
// @Failure     400  {object}  handlers.ErrorResponse       "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse       "No user"
// @Failure     500  {object}  handlers.ErrorResponse       "Internal error"
// @Router      /prompts [post]
func (h *Handlers) SavePrompt(c *gin.Context) {
	ctx := c.Request.Context()

	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to save prompts")
		return
	}

	var req SavePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "input and output required")
		return
	}

	input := sanitizeText(req.Input)
	output := sanitizeText(req.Output)
	if input == "" || output == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "input and output required")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.GetHeader(middleware.HeaderIdempotencyKey))
	}
	db := h.promptDB()
	if idemKey != "" && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, uid, idemScopePrompts, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err2 := repo.GetPrompt(ctx, db, rec.RecordID, uid); err2 == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusCreated, SavePromptResponse{Prompt: prev})
				return
			}
		}
	}

	p, err := h.promptSvc.Save(ctx, uid, req.Label, input, output)
	if err != nil {
		switch err {
		case services.ErrEmptyPrompt, services.ErrNothingToSave:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSaveFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && db != nil {
		ttl := 24 * time.Hour
		_, _ = repo.CreateIdempotency(ctx, db, uid, idemScopePrompts, idemKey, p.ID, http.StatusCreated, ttl)
	}

	ok(c, http.StatusCreated, SavePromptResponse{Prompt: p})
}

// ListPrompts godoc
// @ID          listPrompts
// @Summary     List saved prompts (paginated)
// @Description Returns a page of the user's saved prompts. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Prompts
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (dev fallback)"      example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListPromptsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "No user"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /prompts [get]
func (h *Handlers) ListPrompts(c *gin.Context) {
	ctx := c.Request.Context()

	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to view saved prompts")
		return
	}

	page, pageSize := utils.PageWindow(c.Query("page"), c.Query("page_size"))

	// ETag pre-check (best effort).
	if db := h.promptDB(); db != nil {
		count, maxTS, err := repo.PromptsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"prompts:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.promptSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListPromptsResponse{
		Prompts: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// DeletePrompt godoc
// @ID          deletePrompt
// @Summary     Delete a saved prompt
// @Description Deletes one saved prompt owned by the current user.
// @Tags        Prompts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (dev fallback)"  example(user123)
// @Param       id         path    string  true  "Prompt ID (UUID)"        format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "No user"
// @Failure     404  {object} handlers.ErrorResponse "Prompt not found"
// @Router      /prompts/{id} [delete]
func (h *Handlers) DeletePrompt(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to delete saved prompts")
		return
	}

	promptID := c.Param("id")
	if _, err := uuid.Parse(promptID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt id must be a UUID")
		return
	}

	if err := h.promptSvc.Delete(c.Request.Context(), uid, promptID); err != nil {
		switch err {
		case services.ErrPromptNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "prompt not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	noContent(c)
}

// promptDB inspects the concrete PromptService for its database handle,
// used by the ETag pre-check and idempotency lookups. Returns nil when the
// service is a test fake.
func (h *Handlers) promptDB() *gorm.DB {
	if svc, ok := h.promptSvc.(*services.PromptService); ok {
		return svc.DB
	}
	return nil
}
