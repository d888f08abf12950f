package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/llm"
	"github.com/tkellogg/storymode/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("services_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Story{}, &domain.Chapter{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	return storage.NewStore(t.TempDir())
}

// fakeLLM is a scripted llm.Generator that records the requests it saw.
type fakeLLM struct {
	chapterText string
	chapterErr  error
	title       string
	titleErr    error

	chapterReqs []llm.ChapterRequest
	titleCalls  int
}

func (f *fakeLLM) Chapter(ctx context.Context, req llm.ChapterRequest) (string, error) {
	f.chapterReqs = append(f.chapterReqs, req)
	if f.chapterErr != nil {
		return "", f.chapterErr
	}
	if f.chapterText != "" {
		return f.chapterText, nil
	}
	return fmt.Sprintf("**Chapter %d**\n\nOnce upon a time.", req.Number), nil
}

func (f *fakeLLM) Title(ctx context.Context, prompt, firstChapter string) (string, error) {
	f.titleCalls++
	if f.titleErr != nil {
		return "", f.titleErr
	}
	return f.title, nil
}

// fakeNarrator is a scripted Narrator.
type fakeNarrator struct {
	clip  []byte
	err   error
	calls int
}

func (f *fakeNarrator) Generate(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.clip != nil {
		return f.clip, nil
	}
	return []byte("clip:" + text[:min(8, len(text))]), nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// seedStory inserts a story directly, bypassing service validation.
func seedStory(t *testing.T, db *gorm.DB, id string, numChapters, words int) *domain.Story {
	t.Helper()
	s := &domain.Story{
		ID:              id,
		Title:           "seed title",
		Prompt:          "a robot learns to paint",
		NumChapters:     numChapters,
		WordsPerChapter: words,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed story: %v", err)
	}
	return s
}
