// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chapter
// model. A chapter row is a content marker only: the text and audio bytes
// live on the filesystem, and the row exists to record "this chapter number
// has been generated" and to drive ordering queries.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
)

// ErrDuplicateChapter is returned when a chapter row already exists for the
// given (story, chapter number) pair. Callers surface this as a conflict
// rather than a generic persistence failure, so a retried generation attempt
// is distinguishable from a real write error.
var ErrDuplicateChapter = errors.New("chapter already exists")

// CreateChapter inserts a chapter marker for (storyID, number). The chapter
// ID is a randomly generated UUID and CreatedAt is set to UTC. A violation of
// the (story_id, chapter_number) unique index maps to ErrDuplicateChapter.
func CreateChapter(ctx context.Context, db *gorm.DB, storyID string, number int) (*domain.Chapter, error) {
	c := &domain.Chapter{
		ID:            uuid.NewString(),
		StoryID:       storyID,
		ChapterNumber: number,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateChapter
		}
		return nil, err
	}
	return c, nil
}

// GetChapter fetches the marker row for (storyID, number), or ErrNotFound.
func GetChapter(ctx context.Context, db *gorm.DB, storyID string, number int) (*domain.Chapter, error) {
	var c domain.Chapter
	err := db.WithContext(ctx).
		Where("story_id = ? AND chapter_number = ?", storyID, number).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ChapterExists reports whether a marker row exists for (storyID, number).
func ChapterExists(ctx context.Context, db *gorm.DB, storyID string, number int) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Chapter{}).
		Where("story_id = ? AND chapter_number = ?", storyID, number).
		Count(&n).Error
	return n > 0, err
}

// ListChapters returns all chapter markers for a story ordered by chapter
// number ascending. It returns an empty slice when none exist.
func ListChapters(ctx context.Context, db *gorm.DB, storyID string) ([]domain.Chapter, error) {
	var out []domain.Chapter
	err := db.WithContext(ctx).
		Where("story_id = ?", storyID).
		Order("chapter_number asc").
		Find(&out).Error
	return out, err
}

// CountChapters returns the number of chapter markers for a story.
func CountChapters(ctx context.Context, db *gorm.DB, storyID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Chapter{}).
		Where("story_id = ?", storyID).
		Count(&total).Error
	return total, err
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// GORM translates these to ErrDuplicatedKey where the dialect supports it;
// the SQLite message check covers driver versions that predate translation.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
