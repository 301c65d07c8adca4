package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/promptpilot/go-prompt-backend/internal/services"
)

type stubMailSvc struct {
	send func(ctx context.Context, userID, email, name string, isNewUser bool) error
}

func (s stubMailSvc) SendWelcome(ctx context.Context, userID, email, name string, isNewUser bool) error {
	if s.send != nil {
		return s.send(ctx, userID, email, name, isNewUser)
	}
	return nil
}

func newMailRouter(svc MailService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(stubEnhanceSvc{}, nil, svc)
	r.POST("/welcome-email", h.SendWelcomeEmail)
	return r
}

func postWelcome(r *gin.Engine, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/welcome-email", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendWelcomeEmail_RequiresUser(t *testing.T) {
	r := newMailRouter(stubMailSvc{})
	if w := postWelcome(r, "", `{"email":"a@b.com","name":"Ada","is_new_user":true}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSendWelcomeEmail_InvalidBody(t *testing.T) {
	r := newMailRouter(stubMailSvc{})
	for _, body := range []string{`{}`, `{"email":"a@b.com"}`, `{"name":"Ada"}`} {
		if w := postWelcome(r, "u1", body); w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestSendWelcomeEmail_Sent(t *testing.T) {
	var gotUser, gotEmail, gotName string
	var gotNew bool
	svc := stubMailSvc{send: func(_ context.Context, uid, email, name string, isNew bool) error {
		gotUser, gotEmail, gotName, gotNew = uid, email, name, isNew
		return nil
	}}
	r := newMailRouter(svc)

	w := postWelcome(r, "u1", `{"email":" ada@example.com ","name":" Ada ","is_new_user":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp WelcomeEmailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if !resp.Sent || resp.Reason != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	// Handler trims before delegating.
	if gotUser != "u1" || gotEmail != "ada@example.com" || gotName != "Ada" || !gotNew {
		t.Fatalf("service args: %q %q %q %v", gotUser, gotEmail, gotName, gotNew)
	}
}

func TestSendWelcomeEmail_AlreadyGreeted(t *testing.T) {
	svc := stubMailSvc{send: func(context.Context, string, string, string, bool) error {
		return services.ErrAlreadyGreeted
	}}
	r := newMailRouter(svc)

	w := postWelcome(r, "u1", `{"email":"a@b.com","name":"Ada","is_new_user":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp WelcomeEmailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Sent || resp.Reason != "already greeted" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSendWelcomeEmail_InvalidRecipient(t *testing.T) {
	svc := stubMailSvc{send: func(context.Context, string, string, string, bool) error {
		return services.ErrInvalidEmail
	}}
	r := newMailRouter(svc)

	if w := postWelcome(r, "u1", `{"email":"not-an-email","name":"Ada"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSendWelcomeEmail_TransportFailure(t *testing.T) {
	svc := stubMailSvc{send: func(context.Context, string, string, string, bool) error {
		return errors.New("smtp: connection refused")
	}}
	r := newMailRouter(svc)

	w := postWelcome(r, "u1", `{"email":"a@b.com","name":"Ada","is_new_user":true}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Code != ErrCodeMailFailed {
		t.Fatalf("unexpected code %q", resp.Code)
	}
}
