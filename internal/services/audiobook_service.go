// Package services – AudiobookService
//
// This file implements AudiobookService, which assembles a story's chapter
// narrations into one audiobook with a silence gap between consecutive
// chapters. Assembly is all-or-nothing: every chapter in the story's target
// range must already have narration, otherwise no output is produced. The
// operation is idempotent; reassembling overwrites the previous audiobook.
//
// Observability: assembly is OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/audio"
	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultChapterGap is the silence inserted between consecutive chapters.
const DefaultChapterGap = time.Second

// AudiobookService assembles and serves full-story audiobooks.
type AudiobookService struct {
	DB    *gorm.DB
	Store *storage.Store
	// Gap is the silence between chapters; 0 means DefaultChapterGap.
	Gap time.Duration

	// ffmpeg steps, swappable in tests
	silence func(ctx context.Context, d time.Duration, outputPath string) error
	concat  func(ctx context.Context, inputFiles []string, outputPath string) error
}

// NewAudiobookService constructs an AudiobookService backed by ffmpeg.
func NewAudiobookService(db *gorm.DB, store *storage.Store) *AudiobookService {
	return &AudiobookService{
		DB:      db,
		Store:   store,
		Gap:     DefaultChapterGap,
		silence: audio.Silence,
		concat:  audio.Concat,
	}
}

// Assemble concatenates all chapter narrations, in chapter order, with a
// silence gap between consecutive chapters, persists the result and returns
// its bytes. A story with no chapters fails with ErrNoChapters; a story where
// any chapter in 1..NumChapters lacks narration fails with
// ErrAudiobookNotReady and leaves any previous audiobook untouched.
func (s *AudiobookService) Assemble(ctx context.Context, storyID string) ([]byte, error) {
	tr := otel.Tracer("services/AudiobookService")
	ctx, span := tr.Start(ctx, "Assemble",
		trace.WithAttributes(attribute.String("story.id", storyID)),
	)
	defer span.End()

	story, err := repo.GetStory(ctx, s.DB, storyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	count, err := repo.CountChapters(ctx, s.DB, storyID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoChapters
	}
	for n := 1; n <= story.NumChapters; n++ {
		if !s.Store.HasChapterAudio(storyID, n) {
			return nil, ErrAudiobookNotReady
		}
	}

	workDir, err := os.MkdirTemp("", "storymode-audiobook-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	gap := s.Gap
	if gap <= 0 {
		gap = DefaultChapterGap
	}
	silencePath := filepath.Join(workDir, "silence.mp3")
	if err := s.silence(ctx, gap, silencePath); err != nil {
		return nil, fmt.Errorf("generating silence gap: %w", err)
	}

	inputs := make([]string, 0, 2*story.NumChapters-1)
	for n := 1; n <= story.NumChapters; n++ {
		inputs = append(inputs, s.Store.ChapterAudioPath(storyID, n))
		if n < story.NumChapters {
			inputs = append(inputs, silencePath)
		}
	}

	combined := filepath.Join(workDir, "audiobook.mp3")
	if err := s.concat(ctx, inputs, combined); err != nil {
		return nil, fmt.Errorf("concatenating chapters: %w", err)
	}
	book, err := os.ReadFile(combined)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveAudiobook(storyID, book); err != nil {
		return nil, fmt.Errorf("saving audiobook: %w", err)
	}

	log.Info().
		Str("story_id", storyID).
		Int("chapters", story.NumChapters).
		Int("bytes", len(book)).
		Msg("audiobook assembled")
	return book, nil
}

// Has reports whether an assembled audiobook exists, without reading it.
func (s *AudiobookService) Has(ctx context.Context, storyID string) bool {
	return s.Store.HasAudiobook(storyID)
}

// Audiobook returns the assembled audiobook bytes, or ErrAudiobookNotFound
// when none has been assembled yet.
func (s *AudiobookService) Audiobook(ctx context.Context, storyID string) ([]byte, error) {
	book, err := s.Store.Audiobook(storyID)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrAudiobookNotFound
		}
		return nil, err
	}
	return book, nil
}
