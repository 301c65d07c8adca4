// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Prompt
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a prompt is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Functions:
//
//   - CreatePrompt(ctx, db, userID, label, input, output) -> *domain.Prompt, error
//     Inserts a new Prompt row with UUID primary key and UTC timestamp.
//
//   - ListPrompts(ctx, db, userID) -> []domain.Prompt, error
//     Returns all saved prompts for a user, ordered by creation time descending.
//
//   - CountPrompts(ctx, db, userID) -> (int64, error)
//     Returns the total number of prompts owned by the user.
//
//   - ListPromptsPage(ctx, db, userID, offset, limit) -> []domain.Prompt, error
//     Returns a paginated slice of prompts for a user.
//
//   - GetPrompt(ctx, db, id, userID) -> *domain.Prompt, error
//     Fetches a single prompt by ID/userID, or ErrNotFound if missing.
//
//   - DeletePrompt(ctx, db, id, userID) -> error
//     Soft-deletes a prompt, enforcing user ownership.
//     Returns ErrNotFound if the prompt does not exist.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.PromptService) which enforces business rules and ownership
// checks beyond the SQL predicates here.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreatePrompt inserts a new Prompt row owned by userID. The prompt ID is a
// randomly generated UUID (string), and CreatedAt is set to UTC.
//
// On success, it returns the persisted Prompt. On failure, it returns a DB error.
func CreatePrompt(ctx context.Context, db *gorm.DB, userID, label, input, output string) (*domain.Prompt, error) {
	p := &domain.Prompt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Label:     label,
		Input:     input,
		Output:    output,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ListPrompts returns all prompts belonging to userID, ordered by creation
// time descending (most recent first). It returns an empty slice if the user
// has no saved prompts. On DB error, it returns the error.
func ListPrompts(ctx context.Context, db *gorm.DB, userID string) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountPrompts returns the total number of prompts owned by userID.
// On DB error, it returns the error.
func CountPrompts(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Prompt{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListPromptsPage returns a paginated slice of prompts for userID, ordered by
// creation time descending. Use CountPrompts to obtain the total for
// pagination metadata. On DB error, it returns the error.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListPromptsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Prompt, error) {
	var out []domain.Prompt
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPrompt fetches a single prompt by its ID and owner (userID). If the
// record does not exist, it returns ErrNotFound. On other DB errors, the raw
// error is returned.
func GetPrompt(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Prompt, error) {
	var p domain.Prompt
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePrompt soft-deletes a prompt identified by id and owned by userID.
// If no rows are affected (prompt missing or not owned by userID), it returns
// ErrNotFound. On DB error, the raw error is returned.
func DeletePrompt(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Prompt{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
