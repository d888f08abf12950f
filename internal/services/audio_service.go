// Package services – AudioService
//
// This file implements AudioService, which narrates individual chapters. The
// actual speech synthesis is delegated to a Narrator collaborator (backed by
// the audio package's chunk-and-concatenate pipeline in production) so the
// service stays testable without a TTS provider or ffmpeg.
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"
)

// Narrator converts chapter text into a single MP3 clip.
type Narrator interface {
	Generate(ctx context.Context, text string) ([]byte, error)
}

// AudioService generates and serves per-chapter narration.
type AudioService struct {
	DB       *gorm.DB
	Store    *storage.Store
	Narrator Narrator
}

// NewAudioService constructs an AudioService.
func NewAudioService(db *gorm.DB, store *storage.Store, n Narrator) *AudioService {
	return &AudioService{DB: db, Store: store, Narrator: n}
}

// GenerateChapterAudio narrates a chapter and persists the clip. The chapter's
// text must already exist; regenerating narration for the same chapter
// overwrites the previous clip.
func (s *AudioService) GenerateChapterAudio(ctx context.Context, storyID string, number int) error {
	if number < 1 {
		return ErrInvalidChapter
	}
	if _, err := repo.GetStory(ctx, s.DB, storyID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrStoryNotFound
		}
		return err
	}

	text, err := s.Store.ChapterText(storyID, number)
	if err != nil {
		if storage.IsNotExist(err) {
			return ErrChapterNotFound
		}
		return err
	}

	clip, err := s.Narrator.Generate(ctx, text)
	if err != nil {
		return fmt.Errorf("narrating chapter %d: %w", number, err)
	}
	if err := s.Store.SaveChapterAudio(storyID, number, clip); err != nil {
		return fmt.Errorf("saving chapter audio: %w", err)
	}
	return nil
}

// ChapterAudio returns a chapter's narration bytes, or ErrAudioNotFound when
// none has been generated.
func (s *AudioService) ChapterAudio(ctx context.Context, storyID string, number int) ([]byte, error) {
	clip, err := s.Store.ChapterAudio(storyID, number)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrAudioNotFound
		}
		return nil, err
	}
	return clip, nil
}
