// Package services – PromptService
//
// This file implements PromptService, which manages the saved-prompt library.
// It validates and normalizes inputs, derives a short label from the raw
// prompt when the caller does not supply one, enforces ownership rules, and
// coordinates repository operations for saving, listing (with pagination),
// and deleting prompts.
//
// Service-level errors (e.g., ErrPromptNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
)

// PromptRepo defines the repository contract required by PromptService.
// Implementations are responsible for persistence of prompt aggregates.
type PromptRepo interface {
	// CreatePrompt inserts a new saved prompt for the given user.
	CreatePrompt(ctx context.Context, db *gorm.DB, userID, label, input, output string) (*domain.Prompt, error)

	// ListPrompts returns all saved prompts belonging to the user (non-paginated).
	ListPrompts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Prompt, error)

	// GetPrompt fetches a prompt by ID ensuring it belongs to the user.
	GetPrompt(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Prompt, error)

	// DeletePrompt soft-deletes a prompt (only if it belongs to the user).
	DeletePrompt(ctx context.Context, db *gorm.DB, id, userID string) error

	// CountPrompts returns the total number of prompts for pagination.
	CountPrompts(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListPromptsPage returns a page of prompts belonging to the user.
	ListPromptsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Prompt, error)
}

// PromptService provides library operations over saved prompts. It enforces
// label rules and ensures ownership constraints.
type PromptService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the prompt repository used by this service.
	Repo PromptRepo

	// LabelMaxLen caps stored labels by rune length.
	LabelMaxLen int
	// LabelLocale selects the casing rules for derived labels.
	LabelLocale language.Tag
}

// NewPromptService constructs a PromptService with sane defaults for label handling.
func NewPromptService(db *gorm.DB, r PromptRepo) *PromptService {
	return &PromptService{
		DB:          db,
		Repo:        r,
		LabelMaxLen: 60,
		LabelLocale: language.English,
	}
}

// Save persists an enhancement for userID. The input is the raw prompt and
// output the enhanced text; when label is blank one is derived from the input.
func (s *PromptService) Save(ctx context.Context, userID, label, input, output string) (*domain.Prompt, error) {
	tr := otel.Tracer("services/PromptService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPrompt
	}
	if strings.TrimSpace(output) == "" {
		return nil, ErrNothingToSave
	}

	label = normalizeLabel(label)
	if label == "" {
		label = s.deriveLabel(input)
	}
	if label == "" {
		label = "Saved Prompt"
	}
	return s.Repo.CreatePrompt(ctx, s.DB, userID, s.clip(label), input, output)
}

// List returns all saved prompts for a user (non-paginated).
// Prefer ListPage for scalability on large libraries.
func (s *PromptService) List(ctx context.Context, userID string) ([]domain.Prompt, error) {
	return s.Repo.ListPrompts(ctx, s.DB, userID)
}

// ListPage returns a page of saved prompts for a user (paginated).
// It applies defaults for invalid page/pageSize and returns total count.
func (s *PromptService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Prompt, int64, error) {
	tr := otel.Tracer("services/PromptService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountPrompts(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Prompt{}, 0, nil
	}

	items, err := s.Repo.ListPromptsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Delete removes a saved prompt, ensuring it exists and belongs to the user.
func (s *PromptService) Delete(ctx context.Context, userID, promptID string) error {
	tr := otel.Tracer("services/PromptService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("prompt.id", promptID),
		),
	)
	defer span.End()

	if err := s.Repo.DeletePrompt(ctx, s.DB, promptID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromptNotFound
		}
		return err
	}
	return nil
}

// deriveLabel builds a concise title-cased label from the raw prompt.
func (s *PromptService) deriveLabel(input string) string {
	toks := labelWordRE.FindAllString(strings.ToLower(input), -1)
	if len(toks) == 0 {
		return ""
	}

	caser := cases.Title(s.localeOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := labelStopWords[w]; skip {
			continue
		}
		out = append(out, caser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clip truncates a label to the configured maximum rune length.
func (s *PromptService) clip(label string) string {
	if s.LabelMaxLen > 0 && utf8.RuneCountInString(label) > s.LabelMaxLen {
		return string([]rune(label)[:s.LabelMaxLen])
	}
	return label
}

// localeOrDefault returns the configured locale for casing or English if unset.
func (s *PromptService) localeOrDefault() language.Tag {
	if s.LabelLocale == language.Und {
		return language.English
	}
	return s.LabelLocale
}

// normalizeLabel trims whitespace and collapses multiple spaces to one.
func normalizeLabel(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// Extract Unicode letters with optional trailing numbers (e.g., "gpt4").
var labelWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact labels.
var labelStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
