package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tkellogg/storymode/internal/repo"
)

func newTestPipeline(t *testing.T) (*PipelineService, *fakeLLM, *fakeNarrator) {
	t.Helper()
	db := newTestDB(t)
	store := newTestStore(t)
	gen := &fakeLLM{title: "t"}
	narrator := &fakeNarrator{clip: []byte("mp3")}
	chapters := NewChapterService(db, store, gen)
	audio := NewAudioService(db, store, narrator)
	return NewPipelineService(db, store, chapters, audio), gen, narrator
}

func TestGenerateAll_FillsWholeStoryInOrder(t *testing.T) {
	p, gen, narrator := newTestPipeline(t)
	story := seedStory(t, p.DB, "s1", 3, 100)

	res, err := p.GenerateAll(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if res.ChaptersWritten != 3 || res.ClipsWritten != 3 {
		t.Fatalf("result = %+v", res)
	}
	for i, req := range gen.chapterReqs {
		if req.Number != i+1 {
			t.Fatalf("chapters generated out of order: %+v", gen.chapterReqs)
		}
	}
	if narrator.calls != 3 {
		t.Fatalf("narrator calls = %d", narrator.calls)
	}
	for n := 1; n <= 3; n++ {
		if !p.Store.HasChapterText(story.ID, n) || !p.Store.HasChapterAudio(story.ID, n) {
			t.Fatalf("chapter %d incomplete", n)
		}
	}
}

func TestGenerateAll_SkipsExistingArtifacts(t *testing.T) {
	p, gen, narrator := newTestPipeline(t)
	story := seedStory(t, p.DB, "s1", 2, 100)

	// Chapter 1 already fully generated by a previous run.
	if err := p.Store.SaveChapterText(story.ID, 1, "one"); err != nil {
		t.Fatalf("SaveChapterText: %v", err)
	}
	if _, err := repo.CreateChapter(context.Background(), p.DB, story.ID, 1); err != nil {
		t.Fatalf("CreateChapter: %v", err)
	}
	if err := p.Store.SaveChapterAudio(story.ID, 1, []byte("old")); err != nil {
		t.Fatalf("SaveChapterAudio: %v", err)
	}

	res, err := p.GenerateAll(context.Background(), story.ID)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if res.ChaptersWritten != 1 || res.ClipsWritten != 1 {
		t.Fatalf("result = %+v", res)
	}
	if len(gen.chapterReqs) != 1 || gen.chapterReqs[0].Number != 2 {
		t.Fatalf("only chapter 2 should be generated: %+v", gen.chapterReqs)
	}
	if narrator.calls != 1 {
		t.Fatalf("narrator calls = %d", narrator.calls)
	}
	// Existing narration must not be overwritten.
	clip, err := p.Store.ChapterAudio(story.ID, 1)
	if err != nil || string(clip) != "old" {
		t.Fatalf("chapter 1 clip changed: %q, %v", clip, err)
	}
}

func TestGenerateAll_StopsOnFirstFailure(t *testing.T) {
	p, gen, _ := newTestPipeline(t)
	story := seedStory(t, p.DB, "s1", 3, 100)

	gen.chapterErr = errors.New("model down")
	if _, err := p.GenerateAll(context.Background(), story.ID); err == nil {
		t.Fatalf("expected failure")
	}
	count, err := repo.CountChapters(context.Background(), p.DB, story.ID)
	if err != nil {
		t.Fatalf("CountChapters: %v", err)
	}
	if count != 0 {
		t.Fatalf("no chapters should exist after immediate failure, got %d", count)
	}
}

func TestGenerateAll_StoryNotFound(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	if _, err := p.GenerateAll(context.Background(), "missing"); !errors.Is(err, ErrStoryNotFound) {
		t.Fatalf("expected ErrStoryNotFound, got %v", err)
	}
}
