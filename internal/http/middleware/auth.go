// OIDC bearer-token authentication middleware.
//
// This file gates the API on a verified identity. Tokens are ID tokens from
// a configured OIDC issuer (Google by default); verification uses the
// issuer's published JWKS via github.com/coreos/go-oidc.
//
// Behavior:
//   - No issuer configured (dev/test): requests are trusted as-is and the
//     X-User-ID header, when present, becomes the identity.
//   - Issuer configured, no Authorization header: the request proceeds
//     without an identity; endpoints that need a user reject it themselves.
//   - Issuer configured, malformed or invalid token: 401 with a stable code.
//
// On success the middleware stashes "userID", "userEmail", and "userName" in
// the Gin context for handlers and downstream middleware (rate limiter keys,
// idempotency scoping).
package middleware

import (
	"context"
	"net/http"
	"strings"

	oidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
)

// Identity is the verified subject extracted from a bearer token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// TokenVerifier turns a raw bearer token into a verified identity.
// The production implementation wraps an oidc.IDTokenVerifier; tests inject
// a fake.
type TokenVerifier func(ctx context.Context, rawToken string) (Identity, error)

// Auth verifies bearer tokens and annotates requests with the caller's
// identity. The zero value (nil Verify) is the development mode that trusts
// the X-User-ID header.
type Auth struct {
	Verify TokenVerifier
}

// NewAuth builds an Auth middleware for the given issuer and client ID.
// An empty issuer yields the development-mode Auth with no verifier.
//
// The provider discovery document and JWKS are fetched once here; token
// verification afterwards is local (cached keys).
func NewAuth(ctx context.Context, issuer, clientID string) (*Auth, error) {
	if issuer == "" {
		return &Auth{}, nil
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Auth{Verify: func(ctx context.Context, raw string) (Identity, error) {
		tok, err := verifier.Verify(ctx, raw)
		if err != nil {
			return Identity{}, err
		}
		var claims struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		// Claims beyond the subject are optional; ignore decode failures.
		_ = tok.Claims(&claims)
		return Identity{Subject: tok.Subject, Email: claims.Email, Name: claims.Name}, nil
	}}, nil
}

// Handler returns the Gin middleware.
func (a *Auth) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil || a.Verify == nil {
			// Dev mode: trust the demo header.
			if uid := strings.TrimSpace(c.GetHeader("X-User-ID")); uid != "" {
				c.Set("userID", uid)
			}
			c.Next()
			return
		}

		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			// Anonymous request; protected handlers reject it downstream.
			c.Next()
			return
		}

		id, err := a.Verify(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "invalid bearer token",
			})
			return
		}

		c.Set("userID", id.Subject)
		if id.Email != "" {
			c.Set("userEmail", id.Email)
		}
		if id.Name != "" {
			c.Set("userName", id.Name)
		}
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
// Returns "" for any other scheme or shape.
func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
