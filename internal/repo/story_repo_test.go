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

	"github.com/tkellogg/storymode/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Release the file handle before TempDir cleanup (Windows needs this).
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

func TestCreateStory_PersistsDefaultsTitleToPrompt(t *testing.T) {
	db := newTestDB(t, &domain.Story{})

	s, err := CreateStory(context.Background(), db, "A robot learns to paint", 3, 500)
	if err != nil {
		t.Fatalf("CreateStory: %v", err)
	}
	if s.ID == "" {
		t.Fatalf("expected generated ID")
	}
	if s.Title != s.Prompt || s.Title != "A robot learns to paint" {
		t.Fatalf("title should default to prompt, got %q / %q", s.Title, s.Prompt)
	}
	if s.NumChapters != 3 || s.WordsPerChapter != 500 {
		t.Fatalf("unexpected targets: %+v", s)
	}

	var got domain.Story
	if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
		t.Fatalf("load created story: %v", err)
	}
	if got.Prompt != "A robot learns to paint" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetStory_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Story{})
	_, err := GetStory(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecentStories_OrderAndLimit(t *testing.T) {
	db := newTestDB(t, &domain.Story{})

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := domain.Story{
			ID:        fmt.Sprintf("s%d", i),
			Title:     fmt.Sprintf("t%d", i),
			Prompt:    "p",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := ListRecentStories(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("ListRecentStories: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 stories, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].CreatedAt.After(out[i-1].CreatedAt) {
			t.Fatalf("not ordered by created_at desc: %v then %v", out[i-1].CreatedAt, out[i].CreatedAt)
		}
	}
	if out[0].ID != "s4" {
		t.Fatalf("newest first, got %q", out[0].ID)
	}
}

func TestUpdateStoryTitle(t *testing.T) {
	db := newTestDB(t, &domain.Story{})

	s, err := CreateStory(context.Background(), db, "prompt", 10, 1000)
	if err != nil {
		t.Fatalf("CreateStory: %v", err)
	}
	if err := UpdateStoryTitle(context.Background(), db, s.ID, "The Painted Machine"); err != nil {
		t.Fatalf("UpdateStoryTitle: %v", err)
	}
	got, err := GetStory(context.Background(), db, s.ID)
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if got.Title != "The Painted Machine" {
		t.Fatalf("title = %q", got.Title)
	}
	if got.Prompt != "prompt" {
		t.Fatalf("prompt must stay immutable, got %q", got.Prompt)
	}

	if err := UpdateStoryTitle(context.Background(), db, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStory_RemovesChaptersThenStory(t *testing.T) {
	db := newTestDB(t, &domain.Story{}, &domain.Chapter{})

	s, err := CreateStory(context.Background(), db, "p", 3, 100)
	if err != nil {
		t.Fatalf("CreateStory: %v", err)
	}
	for n := 1; n <= 3; n++ {
		if _, err := CreateChapter(context.Background(), db, s.ID, n); err != nil {
			t.Fatalf("CreateChapter %d: %v", n, err)
		}
	}

	if err := DeleteStory(context.Background(), db, s.ID); err != nil {
		t.Fatalf("DeleteStory: %v", err)
	}

	if _, err := GetStory(context.Background(), db, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("story should be gone, got %v", err)
	}
	left, err := CountChapters(context.Background(), db, s.ID)
	if err != nil {
		t.Fatalf("CountChapters: %v", err)
	}
	if left != 0 {
		t.Fatalf("expected 0 chapters after delete, got %d", left)
	}
}

func TestDeleteStory_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Story{}, &domain.Chapter{})
	if err := DeleteStory(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
