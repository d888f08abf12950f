// Package services – StoryService
//
// This file implements the StoryService, which manages the lifecycle of
// stories. It validates and normalizes prompts and titles, applies the
// configured chapter-count and word-count defaults, and coordinates repository
// and artifact-store operations for creating, fetching, listing and deleting
// stories. Automatic title generation is performed in ChapterService when the
// first chapter is written.
//
// Service-level errors (e.g., ErrStoryNotFound) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"
)

// StoryService provides story-level operations such as creating, listing,
// retitling and deleting stories. It owns the cleanup of a deleted story's
// on-disk artifacts.
type StoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store holds the story's on-disk artifacts (text, audio, audiobook).
	Store *storage.Store

	// DefaultChapters is the chapter count applied when a request omits it.
	DefaultChapters int
	// DefaultWords is the per-chapter word target applied when omitted.
	DefaultWords int
	// RecentLimit caps the ListRecent result size.
	RecentLimit int
	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewStoryService constructs a StoryService with sane defaults.
func NewStoryService(db *gorm.DB, store *storage.Store) *StoryService {
	return &StoryService{
		DB:              db,
		Store:           store,
		DefaultChapters: 10,
		DefaultWords:    1000,
		RecentLimit:     10,
		TitleMaxLen:     120,
	}
}

// Create inserts a new story from a prompt. The prompt is normalized and must
// be non-empty; chapter count and word target fall back to the configured
// defaults when non-positive. The prompt doubles as the initial title until
// the first chapter triggers title generation.
func (s *StoryService) Create(ctx context.Context, prompt string, numChapters, wordsPerChapter int) (*domain.Story, error) {
	prompt = normalizePrompt(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if numChapters <= 0 {
		numChapters = s.DefaultChapters
	}
	if wordsPerChapter <= 0 {
		wordsPerChapter = s.DefaultWords
	}
	return repo.CreateStory(ctx, s.DB, prompt, numChapters, wordsPerChapter)
}

// Get fetches a story by ID, mapping a missing row to ErrStoryNotFound.
func (s *StoryService) Get(ctx context.Context, id string) (*domain.Story, error) {
	story, err := repo.GetStory(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	return story, nil
}

// ListRecent returns the most recently created stories, newest first.
func (s *StoryService) ListRecent(ctx context.Context) ([]domain.Story, error) {
	limit := s.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	return repo.ListRecentStories(ctx, s.DB, limit)
}

// UpdateTitle replaces a story's title. The title is trimmed, must be
// non-empty, and is clipped to the configured rune limit.
func (s *StoryService) UpdateTitle(ctx context.Context, id, title string) (*domain.Story, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	title = clipRunes(title, s.TitleMaxLen)

	if err := repo.UpdateStoryTitle(ctx, s.DB, id, title); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	return repo.GetStory(ctx, s.DB, id)
}

// Delete removes a story's metadata rows and its on-disk subtree. The
// filesystem cleanup runs after the rows are gone; a cleanup failure is logged
// but does not resurrect the story, since the metadata store is authoritative.
func (s *StoryService) Delete(ctx context.Context, id string) error {
	if err := repo.DeleteStory(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrStoryNotFound
		}
		return err
	}
	if err := s.Store.RemoveStory(id); err != nil {
		log.Warn().Err(err).Str("story_id", id).Msg("failed to remove story artifacts")
	}
	return nil
}

// clipRunes truncates s to at most max runes; max <= 0 means no limit.
func clipRunes(s string, max int) string {
	if max > 0 && utf8.RuneCountInString(s) > max {
		return string([]rune(s)[:max])
	}
	return s
}

// normalizePrompt trims whitespace and collapses internal runs to one space.
func normalizePrompt(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
