// Package services – PipelineService
//
// This file implements PipelineService, the batch path that fills in a whole
// story: for each chapter number up to the story's target, generate the text
// if its marker row is missing, then generate narration if the clip is
// missing. Chapters are processed strictly one at a time in ascending order
// because each chapter's generation consumes the previous chapter's text.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// GenerateAllResult reports what a batch run actually produced.
type GenerateAllResult struct {
	ChaptersWritten int `json:"chapters_written" example:"10"`
	ClipsWritten    int `json:"clips_written"    example:"10"`
}

// PipelineService drives full-story generation over the chapter and audio
// services.
type PipelineService struct {
	DB       *gorm.DB
	Store    *storage.Store
	Chapters *ChapterService
	Audio    *AudioService
}

// NewPipelineService constructs a PipelineService.
func NewPipelineService(db *gorm.DB, store *storage.Store, chapters *ChapterService, audio *AudioService) *PipelineService {
	return &PipelineService{DB: db, Store: store, Chapters: chapters, Audio: audio}
}

// GenerateAll walks chapters 1..NumChapters in order, generating missing text
// and then missing narration for each. Already-generated artifacts are
// skipped, so the call is safe to repeat after a partial failure and resumes
// where the previous run stopped. The first error aborts the walk.
func (p *PipelineService) GenerateAll(ctx context.Context, storyID string) (*GenerateAllResult, error) {
	tr := otel.Tracer("services/PipelineService")
	ctx, span := tr.Start(ctx, "GenerateAll",
		trace.WithAttributes(attribute.String("story.id", storyID)),
	)
	defer span.End()

	story, err := repo.GetStory(ctx, p.DB, storyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}

	res := &GenerateAllResult{}
	for n := 1; n <= story.NumChapters; n++ {
		exists, err := repo.ChapterExists(ctx, p.DB, storyID, n)
		if err != nil {
			return nil, err
		}
		if !exists {
			if _, err := p.Chapters.Generate(ctx, storyID, n); err != nil {
				// A concurrent request may have written the chapter first.
				if !errors.Is(err, ErrChapterExists) {
					return nil, err
				}
			} else {
				res.ChaptersWritten++
			}
			log.Debug().Str("story_id", storyID).Int("chapter", n).Msg("chapter generated")
		}

		if !p.Store.HasChapterAudio(storyID, n) {
			if err := p.Audio.GenerateChapterAudio(ctx, storyID, n); err != nil {
				return nil, err
			}
			res.ClipsWritten++
			log.Debug().Str("story_id", storyID).Int("chapter", n).Msg("chapter narrated")
		}
	}
	return res, nil
}
