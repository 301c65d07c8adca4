// Welcome-email HTTP handler.
//
// This file exposes the transactional-mail endpoint:
//   - POST /welcome-email   (send the one-time welcome email to a new user)
//
// The endpoint is deliberately forgiving: an address that was already greeted
// returns 200 with sent=false rather than an error, so clients can call it
// unconditionally after sign-up.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/promptpilot/go-prompt-backend/internal/services"
)

// WelcomeEmailRequest is the JSON payload for requesting a welcome email.
type WelcomeEmailRequest struct {
	// Email is the recipient address. It must be a valid address.
	Email string `json:"email" binding:"required" example:"ada@example.com"`
	// Name is the recipient display name used in the greeting.
	Name string `json:"name" binding:"required" example:"Ada"`
	// IsNewUser gates sending; false means the client knows the user is
	// returning and no mail is wanted.
	IsNewUser bool `json:"is_new_user"`
}

// WelcomeEmailResponse reports whether a mail was actually dispatched.
type WelcomeEmailResponse struct {
	Sent bool `json:"sent"`
	// Reason is set when Sent is false (e.g. "already greeted").
	Reason string `json:"reason,omitempty"`
}

// SendWelcomeEmail godoc
// @ID          sendWelcomeEmail
// @Summary     Send the welcome email
// @Description Sends the one-time welcome email to a newly signed-up user.
// @Description Duplicate requests for the same address return sent=false.
// @Tags        Mail
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (dev fallback)"  example(user123)
// @Param       body       body    handlers.WelcomeEmailRequest  true  "Recipient payload"
//
// @Success     200  {object}  handlers.WelcomeEmailResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid recipient"
// @Failure     401  {object}  handlers.ErrorResponse  "No user"
// @Failure     502  {object}  handlers.ErrorResponse  "Mail transport failure"
// @Router      /welcome-email [post]
func (h *Handlers) SendWelcomeEmail(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "sign in to receive the welcome email")
		return
	}

	var req WelcomeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and name are required")
		return
	}

	err := h.mailSvc.SendWelcome(c.Request.Context(), uid, strings.TrimSpace(req.Email), strings.TrimSpace(req.Name), req.IsNewUser)
	switch err {
	case nil:
		ok(c, http.StatusOK, WelcomeEmailResponse{Sent: true})
	case services.ErrAlreadyGreeted:
		ok(c, http.StatusOK, WelcomeEmailResponse{Sent: false, Reason: "already greeted"})
	case services.ErrInvalidEmail:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusBadGateway, ErrCodeMailFailed, err.Error())
	}
}
