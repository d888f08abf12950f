// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Story model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a story is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateStory inserts a new Story row. The title defaults to the prompt; a
// generated title replaces it after the first chapter is written. The story
// ID is a randomly generated UUID and CreatedAt is set to UTC.
func CreateStory(ctx context.Context, db *gorm.DB, prompt string, numChapters, wordsPerChapter int) (*domain.Story, error) {
	s := &domain.Story{
		ID:              uuid.NewString(),
		Title:           prompt,
		Prompt:          prompt,
		NumChapters:     numChapters,
		WordsPerChapter: wordsPerChapter,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetStory fetches a single story by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetStory(ctx context.Context, db *gorm.DB, id string) (*domain.Story, error) {
	var s domain.Story
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRecentStories returns at most limit stories ordered by creation time
// descending (most recent first). It returns an empty slice when there are
// no stories.
func ListRecentStories(ctx context.Context, db *gorm.DB, limit int) ([]domain.Story, error) {
	var out []domain.Story
	err := db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateStoryTitle replaces the title of a story. If no rows are affected
// (story missing), it returns ErrNotFound.
func UpdateStoryTitle(ctx context.Context, db *gorm.DB, id, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Story{}).
		Where("id = ?", id).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteStory removes a story's chapter rows and then the story row itself.
// The two deletes intentionally run as separate statements, not one
// transaction: a crash in between leaves orphaned chapter rows, an accepted
// gap for this system's risk profile. Returns ErrNotFound when the story row
// did not exist.
func DeleteStory(ctx context.Context, db *gorm.DB, id string) error {
	if err := db.WithContext(ctx).
		Where("story_id = ?", id).
		Delete(&domain.Chapter{}).Error; err != nil {
		return err
	}
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Story{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
