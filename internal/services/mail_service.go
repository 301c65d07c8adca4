// Package services – MailService
//
// This file implements MailService, which sends the one-time welcome email to
// newly signed-up users. Dispatch is idempotent per address: the repository
// records every greeting, and a unique index collapses concurrent sends to
// one. The SMTP transport is injected behind the Sender interface so tests
// never open sockets.
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
	"github.com/promptpilot/go-prompt-backend/internal/repo"
)

// Sender delivers one rendered message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

// WelcomeRepo is the persistence contract for greeting bookkeeping.
type WelcomeRepo interface {
	HasWelcomeEmail(ctx context.Context, db *gorm.DB, email string) (bool, error)
	RecordWelcomeEmail(ctx context.Context, db *gorm.DB, userID, email string) (*domain.WelcomeEmail, error)
}

// MailService sends welcome emails with per-address dedupe.
type MailService struct {
	DB     *gorm.DB
	Repo   WelcomeRepo
	Sender Sender

	// AppURL is the link embedded in the call-to-action button.
	AppURL string
}

// NewMailService constructs a MailService.
func NewMailService(db *gorm.DB, r WelcomeRepo, sender Sender, appURL string) *MailService {
	if appURL == "" {
		appURL = "https://promptpilot.app"
	}
	return &MailService{DB: db, Repo: r, Sender: sender, AppURL: appURL}
}

// SendWelcome greets a new user. Returns ErrInvalidEmail for missing fields,
// ErrAlreadyGreeted when the user is not new or the address was already
// greeted, and the transport error when delivery fails. The greeting is
// recorded only after a successful send.
func (s *MailService) SendWelcome(ctx context.Context, userID, email, name string, isNewUser bool) error {
	tr := otel.Tracer("services/MailService")
	ctx, span := tr.Start(ctx, "SendWelcome",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}
	if !isNewUser {
		return ErrAlreadyGreeted
	}

	sent, err := s.Repo.HasWelcomeEmail(ctx, s.DB, email)
	if err != nil {
		return err
	}
	if sent {
		return ErrAlreadyGreeted
	}

	body, err := renderWelcome(name, s.AppURL)
	if err != nil {
		return err
	}
	if err := s.Sender.Send(ctx, email, welcomeSubject, body); err != nil {
		return err
	}

	if _, err := s.Repo.RecordWelcomeEmail(ctx, s.DB, userID, email); err != nil {
		if err == repo.ErrDuplicate {
			// A concurrent request won the race after our send; the user got
			// at most two greetings and the record stands.
			return nil
		}
		log.Warn().Err(err).Str("user_id", userID).Msg("welcome email sent but not recorded")
		return nil
	}
	return nil
}

const welcomeSubject = "Welcome to PromptPilot - Let's Enhance Your AI Prompts!"

// renderWelcome fills the HTML template with the user's name and the app link.
func renderWelcome(name, appURL string) (string, error) {
	var buf bytes.Buffer
	err := welcomeTmpl.Execute(&buf, struct {
		Name   string
		AppURL string
		Year   int
	}{Name: name, AppURL: appURL, Year: time.Now().Year()})
	if err != nil {
		return "", fmt.Errorf("render welcome email: %w", err)
	}
	return buf.String(), nil
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;">
  <div style="width: 100%; background-color: #f8fafc; padding: 40px 0;">
    <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 16px; overflow: hidden;">
      <div style="background: linear-gradient(135deg, #4F46E5 0%, #7C3AED 100%); padding: 40px 20px; text-align: center;">
        <h1 style="color: #ffffff; font-size: 28px; margin: 0; font-weight: 700;">Welcome to PromptPilot!</h1>
      </div>
      <div style="padding: 40px 30px;">
        <h2 style="color: #1F2937; font-size: 22px; margin: 0 0 20px;">Hello {{.Name}},</h2>
        <p style="color: #4B5563; font-size: 16px; line-height: 1.6; margin: 0 0 24px;">
          Thank you for joining PromptPilot! We're excited to help you create more powerful and effective AI prompts.
        </p>
        <div style="background: #F8FAFC; border-radius: 12px; padding: 24px; margin: 30px 0;">
          <h3 style="color: #1F2937; font-size: 18px; margin: 0 0 20px;">What you can do with PromptPilot:</h3>
          <ul style="color: #4B5563; margin: 0; padding-left: 20px;">
            <li style="margin-bottom: 12px;">Transform simple prompts into powerful, detailed instructions</li>
            <li style="margin-bottom: 12px;">Leverage our multilingual support for both English and Hindi</li>
            <li style="margin-bottom: 12px;">Get instant AI-powered refinements for better results</li>
            <li style="margin-bottom: 0;">Access a growing library of prompt templates</li>
          </ul>
        </div>
        <div style="text-align: center; margin: 40px 0;">
          <a href="{{.AppURL}}"
             style="display: inline-block; background: #4F46E5; color: #ffffff; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600; font-size: 16px;">
            Start Enhancing Prompts &rarr;
          </a>
        </div>
        <div style="background: #EEF2FF; border-left: 4px solid #4F46E5; padding: 20px; border-radius: 0 8px 8px 0; margin: 30px 0;">
          <h4 style="color: #1F2937; font-size: 16px; margin: 0 0 8px;">Pro Tip:</h4>
          <p style="color: #4B5563; font-size: 14px; margin: 0;">
            Start with a simple prompt and let our AI enhance it for better results!
          </p>
        </div>
      </div>
      <div style="background: #F8FAFC; padding: 30px; text-align: center; border-top: 1px solid #E5E7EB;">
        <p style="color: #6B7280; font-size: 12px; margin: 0 0 10px;">
          &copy; {{.Year}} PromptPilot. All rights reserved.
        </p>
        <p style="color: #9CA3AF; font-size: 12px; margin: 0;">
          You're receiving this email because you signed up for PromptPilot.
        </p>
      </div>
    </div>
  </div>
</body>
</html>
`))

// SMTPSender delivers mail over plain SMTP with AUTH. It satisfies Sender.
type SMTPSender struct {
	Addr     string // host:port
	Host     string // hostname for AUTH
	Username string
	Password string
	From     string
}

// Send renders RFC 822 headers around the HTML body and submits the message.
func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: PromptPilot Team <%s>\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	return smtp.SendMail(s.Addr, auth, s.From, []string{to}, msg.Bytes())
}
