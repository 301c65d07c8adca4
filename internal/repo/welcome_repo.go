// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for welcome-email
// bookkeeping: a user's address is recorded the first time a greeting goes
// out, and the record makes every later attempt a no-op.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
)

// HasWelcomeEmail reports whether a greeting was already sent to email.
func HasWelcomeEmail(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.WelcomeEmail{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// RecordWelcomeEmail inserts the dispatch record for (userID, email).
// A duplicate address returns ErrDuplicate so concurrent senders collapse to
// one greeting.
func RecordWelcomeEmail(ctx context.Context, db *gorm.DB, userID, email string) (*domain.WelcomeEmail, error) {
	rec := &domain.WelcomeEmail{
		ID:     uuid.NewString(),
		UserID: userID,
		Email:  email,
		SentAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
