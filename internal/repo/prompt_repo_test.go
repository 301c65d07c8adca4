package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/promptpilot/go-prompt-backend/internal/domain"
)

func newPromptRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("prompt_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreatePrompt_Error_NoTable(t *testing.T) {
	db := newPromptRepoDB(t /* no migrations */)
	p, err := CreatePrompt(context.Background(), db, "u1", "l", "in", "out")
	if err == nil || p != nil {
		t.Fatalf("expected error creating without table, got prompt=%v err=%v", p, err)
	}
}

func TestCreatePrompt_Success_PersistsAndSetsFields(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})

	start := time.Now().UTC().Add(-time.Minute)
	p, err := CreatePrompt(context.Background(), db, "u1", "Cake Recipe", "how to make a cake", "Provide a step-by-step recipe...")
	if err != nil {
		t.Fatalf("CreatePrompt: %v", err)
	}
	if p.ID == "" || p.UserID != "u1" || p.Label != "Cake Recipe" {
		t.Fatalf("unexpected Prompt fields: %+v", p)
	}
	if p.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", p.CreatedAt)
	}
	// round-trip
	var got domain.Prompt
	if err := db.First(&got, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("load created prompt: %v", err)
	}
	if got.Input != "how to make a cake" || got.Output != "Provide a step-by-step recipe..." {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestListPrompts_OrderDescendingAndFilter(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})

	// Seed with known CreatedAt so order is deterministic.
	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) // oldest
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour) // newest for u1
	p1 := domain.Prompt{ID: "p1", UserID: "u1", Label: "A", Input: "i", Output: "o", CreatedAt: t1}
	p2 := domain.Prompt{ID: "p2", UserID: "u1", Label: "B", Input: "i", Output: "o", CreatedAt: t2}
	p3 := domain.Prompt{ID: "p3", UserID: "u1", Label: "C", Input: "i", Output: "o", CreatedAt: t3}
	px := domain.Prompt{ID: "px", UserID: "u2", Label: "Other", Input: "i", Output: "o", CreatedAt: t2}

	for _, p := range []domain.Prompt{p1, p2, p3, px} {
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed %s: %v", p.ID, err)
		}
	}

	list, err := ListPrompts(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 prompts for u1, got %d", len(list))
	}
	// Must be descending by CreatedAt: p3, p2, p1
	if list[0].ID != "p3" || list[1].ID != "p2" || list[2].ID != "p1" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestCountPrompts_Error_NoTable(t *testing.T) {
	db := newPromptRepoDB(t /* no migrations */)
	if _, err := CountPrompts(context.Background(), db, "u1"); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestCountPrompts_Success(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})
	// u1 has 2, u2 has 1
	if err := db.Create(&domain.Prompt{ID: "a", UserID: "u1", Label: "l", Input: "i", Output: "o"}).Error; err != nil {
		t.Fatalf("seed a: %v", err)
	}
	if err := db.Create(&domain.Prompt{ID: "b", UserID: "u1", Label: "l", Input: "i", Output: "o"}).Error; err != nil {
		t.Fatalf("seed b: %v", err)
	}
	if err := db.Create(&domain.Prompt{ID: "x", UserID: "u2", Label: "l", Input: "i", Output: "o"}).Error; err != nil {
		t.Fatalf("seed x: %v", err)
	}

	total, err := CountPrompts(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("CountPrompts: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2, got %d", total)
	}
}

func TestListPromptsPage_PaginationAndOrder(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})

	// Seed 5 prompts with increasing CreatedAt, so desc order is 5,4,3,2,1
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		p := domain.Prompt{
			ID:        string(rune('a' + i - 1)),
			UserID:    "u1",
			Label:     "l",
			Input:     "i",
			Output:    "o",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	// Offset 1, limit 2 => should return the 2nd and 3rd newest => IDs 'd','c'
	page, err := ListPromptsPage(context.Background(), db, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPromptsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
		t.Fatalf("unexpected page slice: %+v", page)
	}
}

func TestGetPrompt_FoundAndNotFound(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})

	// Not found
	if _, err := GetPrompt(context.Background(), db, "nope", "u1"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing prompt")
	}

	// Insert & fetch
	p := &domain.Prompt{ID: "pid", UserID: "owner", Label: "x", Input: "i", Output: "o"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed prompt: %v", err)
	}
	got, err := GetPrompt(context.Background(), db, "pid", "owner")
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if got.ID != "pid" || got.UserID != "owner" {
		t.Fatalf("unexpected prompt: %+v", got)
	}
}

func TestDeletePrompt_OwnershipAndSoftDelete(t *testing.T) {
	db := newPromptRepoDB(t, &domain.Prompt{})

	p := &domain.Prompt{ID: "p1", UserID: "u1", Label: "l", Input: "i", Output: "o"}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Wrong owner -> not found, row untouched
	if err := DeletePrompt(context.Background(), db, "p1", "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong owner, got %v", err)
	}

	// Owner delete succeeds
	if err := DeletePrompt(context.Background(), db, "p1", "u1"); err != nil {
		t.Fatalf("DeletePrompt: %v", err)
	}

	// Hidden from default queries, retained unscoped
	var cnt int64
	if err := db.Model(&domain.Prompt{}).Where("id = ?", "p1").Count(&cnt).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("deleted prompt still visible")
	}
	if err := db.Unscoped().Model(&domain.Prompt{}).Where("id = ?", "p1").Count(&cnt).Error; err != nil {
		t.Fatalf("unscoped count: %v", err)
	}
	if cnt != 1 {
		t.Fatalf("expected soft delete to retain row")
	}

	// Second delete -> not found
	if err := DeletePrompt(context.Background(), db, "p1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestDeletePrompt_Error_NoTable(t *testing.T) {
	db := newPromptRepoDB(t /* no migrations */)

	err := DeletePrompt(context.Background(), db, "anyid", "anyuser")
	if err == nil {
		t.Fatalf("expected error when table does not exist")
	}
}
