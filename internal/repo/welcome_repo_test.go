package repo

import (
	"context"
	"testing"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
)

func TestHasWelcomeEmail_EmptyAndRecorded(t *testing.T) {
	db := newPromptRepoDB(t, &domain.WelcomeEmail{})

	sent, err := HasWelcomeEmail(context.Background(), db, "new@example.com")
	if err != nil {
		t.Fatalf("HasWelcomeEmail: %v", err)
	}
	if sent {
		t.Fatalf("expected no record for a fresh address")
	}

	if _, err := RecordWelcomeEmail(context.Background(), db, "u1", "new@example.com"); err != nil {
		t.Fatalf("RecordWelcomeEmail: %v", err)
	}

	sent, err = HasWelcomeEmail(context.Background(), db, "new@example.com")
	if err != nil {
		t.Fatalf("HasWelcomeEmail after record: %v", err)
	}
	if !sent {
		t.Fatalf("expected recorded address to report sent")
	}
}

func TestRecordWelcomeEmail_DuplicateAddress(t *testing.T) {
	db := newPromptRepoDB(t, &domain.WelcomeEmail{})

	rec, err := RecordWelcomeEmail(context.Background(), db, "u1", "dup@example.com")
	if err != nil || rec == nil || rec.ID == "" {
		t.Fatalf("first record: rec=%v err=%v", rec, err)
	}

	// Same address for a different user still collapses to one greeting.
	if _, err := RecordWelcomeEmail(context.Background(), db, "u2", "dup@example.com"); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestRecordWelcomeEmail_Error_NoTable(t *testing.T) {
	db := newPromptRepoDB(t /* no migrations */)
	if _, err := RecordWelcomeEmail(context.Background(), db, "u1", "x@example.com"); err == nil {
		t.Fatalf("expected error when table missing")
	}
	if _, err := HasWelcomeEmail(context.Background(), db, "x@example.com"); err == nil {
		t.Fatalf("expected error when table missing")
	}
}
