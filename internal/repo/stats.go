// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
)

// ChapterStats returns aggregate metadata for a story's chapters: the total
// number of marker rows and the maximum UpdatedAt timestamp among them. The
// pair changes whenever a chapter is generated, which makes it a cheap basis
// for a weak ETag on the chapters-list fragment.
//
// When the story has no chapters, the returned count is 0 and maxUpdatedAt
// is nil.
func ChapterStats(ctx context.Context, db *gorm.DB, storyID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Chapter{}).Where("story_id = ?", storyID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
