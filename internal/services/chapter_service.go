// Package services – ChapterService
//
// This file implements ChapterService, the application-level component that
// owns chapter generation. It validates inputs, enforces the
// one-row-per-chapter-number rule, feeds the previous chapter's text to the
// language model as continuation context, and persists the result as a
// markdown file plus a metadata marker row.
//
// When the first chapter is written the story also receives a generated
// title; if the model cannot produce one, a concise title is derived from the
// prompt instead so the story never keeps its raw prompt as a permanent title.
//
// Observability: generation is OpenTelemetry-instrumented; spans include the
// story ID and chapter number.
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/llm"
	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ChapterContent is a chapter marker joined with its on-disk artifacts.
type ChapterContent struct {
	Number   int
	Text     string
	HasAudio bool
}

// ChapterListing is a story's ordered chapter markers plus the target count,
// so callers can render generation progress.
type ChapterListing struct {
	Story    *domain.Story
	Chapters []domain.Chapter
}

// ChapterService coordinates chapter generation and retrieval.
type ChapterService struct {
	DB    *gorm.DB
	Store *storage.Store
	LLM   llm.Generator

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// NewChapterService constructs a ChapterService with default title handling.
func NewChapterService(db *gorm.DB, store *storage.Store, gen llm.Generator) *ChapterService {
	return &ChapterService{
		DB:          db,
		Store:       store,
		LLM:         gen,
		TitleLocale: language.Und,
		TitleMaxLen: 120,
	}
}

// Generate produces the text of chapter number for a story and persists it.
// The pipeline is: verify the story, reject duplicates, load the previous
// chapter's text as context (required for every chapter after the first),
// call the model, save the markdown, insert the marker row, and on the first
// chapter derive and store a title.
//
// A marker row for the previous chapter without a text file behind it counts
// as missing context and fails with ErrChapterNotFound.
func (s *ChapterService) Generate(ctx context.Context, storyID string, number int) (string, error) {
	tr := otel.Tracer("services/ChapterService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("story.id", storyID),
			attribute.Int("chapter.number", number),
		),
	)
	defer span.End()

	if number < 1 {
		return "", ErrInvalidChapter
	}

	story, err := repo.GetStory(ctx, s.DB, storyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrStoryNotFound
		}
		return "", err
	}

	exists, err := repo.ChapterExists(ctx, s.DB, storyID, number)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrChapterExists
	}

	var prev string
	if number > 1 {
		prev, err = s.Store.ChapterText(storyID, number-1)
		if err != nil {
			if storage.IsNotExist(err) {
				return "", ErrChapterNotFound
			}
			return "", fmt.Errorf("reading previous chapter: %w", err)
		}
	}

	text, err := s.LLM.Chapter(ctx, llm.ChapterRequest{
		Number:          number,
		TotalChapters:   story.NumChapters,
		WordsPerChapter: story.WordsPerChapter,
		Prompt:          story.Prompt,
		PreviousChapter: prev,
	})
	if err != nil {
		return "", err
	}

	if err := s.Store.SaveChapterText(storyID, number, text); err != nil {
		return "", fmt.Errorf("saving chapter text: %w", err)
	}
	if _, err := repo.CreateChapter(ctx, s.DB, storyID, number); err != nil {
		if errors.Is(err, repo.ErrDuplicateChapter) {
			return "", ErrChapterExists
		}
		return "", err
	}

	if number == 1 {
		s.applyTitle(ctx, story, text)
	}
	return text, nil
}

// Get returns a chapter's text and narration status, requiring both the
// marker row and the text file to be present.
func (s *ChapterService) Get(ctx context.Context, storyID string, number int) (*ChapterContent, error) {
	if number < 1 {
		return nil, ErrInvalidChapter
	}
	if _, err := repo.GetChapter(ctx, s.DB, storyID, number); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}
	text, err := s.Store.ChapterText(storyID, number)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, ErrChapterNotFound
		}
		return nil, err
	}
	return &ChapterContent{
		Number:   number,
		Text:     text,
		HasAudio: s.Store.HasChapterAudio(storyID, number),
	}, nil
}

// List returns a story's chapter markers in order plus the story itself.
func (s *ChapterService) List(ctx context.Context, storyID string) (*ChapterListing, error) {
	story, err := repo.GetStory(ctx, s.DB, storyID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	chapters, err := repo.ListChapters(ctx, s.DB, storyID)
	if err != nil {
		return nil, err
	}
	return &ChapterListing{Story: story, Chapters: chapters}, nil
}

// applyTitle stores a generated title for the story. Model failure falls back
// to a title derived from the prompt; a failed DB update is logged and
// swallowed because the chapter itself is already persisted.
func (s *ChapterService) applyTitle(ctx context.Context, story *domain.Story, firstChapter string) {
	title, err := s.LLM.Title(ctx, story.Prompt, firstChapter)
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			log.Warn().Err(err).Str("story_id", story.ID).Msg("title generation failed, deriving from prompt")
		}
		title = s.titleFromPrompt(story.Prompt)
	}
	if title == "" {
		return
	}
	title = clipRunes(title, s.TitleMaxLen)
	if err := repo.UpdateStoryTitle(ctx, s.DB, story.ID, title); err != nil {
		log.Warn().Err(err).Str("story_id", story.ID).Msg("failed to store generated title")
		return
	}
	story.Title = title
}

// titleFromPrompt derives a concise title from the story prompt.
func (s *ChapterService) titleFromPrompt(prompt string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(strings.TrimSpace(prompt)), -1)
	if len(toks) == 0 {
		return ""
	}
	caser := cases.Title(s.TitleLocale)
	out := make([]string, 0, 6)
	for _, w := range toks {
		out = append(out, caser.String(w))
		if len(out) >= 6 {
			break
		}
	}
	return strings.Join(out, " ")
}

// titleWordRE extracts word tokens for prompt-derived titles.
var titleWordRE = regexp.MustCompile(`[\p{L}\p{N}']+`)
