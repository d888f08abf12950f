package services

import (
	"context"
	"errors"
	"testing"
)

func TestGenerateChapterAudio(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)
	narrator := &fakeNarrator{clip: []byte("mp3")}
	svc := NewAudioService(db, store, narrator)

	if err := svc.GenerateChapterAudio(context.Background(), "missing", 1); !errors.Is(err, ErrStoryNotFound) {
		t.Fatalf("expected ErrStoryNotFound, got %v", err)
	}

	story := seedStory(t, db, "s1", 3, 500)
	if err := svc.GenerateChapterAudio(context.Background(), story.ID, 1); !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound without text, got %v", err)
	}

	if err := store.SaveChapterText(story.ID, 1, "# one"); err != nil {
		t.Fatalf("SaveChapterText: %v", err)
	}
	if err := svc.GenerateChapterAudio(context.Background(), story.ID, 1); err != nil {
		t.Fatalf("GenerateChapterAudio: %v", err)
	}
	if narrator.calls != 1 {
		t.Fatalf("narrator calls = %d", narrator.calls)
	}
	clip, err := store.ChapterAudio(story.ID, 1)
	if err != nil || string(clip) != "mp3" {
		t.Fatalf("clip not persisted: %q, %v", clip, err)
	}
}

func TestGenerateChapterAudio_NarratorFailure(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)
	svc := NewAudioService(db, store, &fakeNarrator{err: errors.New("tts down")})

	story := seedStory(t, db, "s1", 1, 100)
	if err := store.SaveChapterText(story.ID, 1, "# one"); err != nil {
		t.Fatalf("SaveChapterText: %v", err)
	}
	if err := svc.GenerateChapterAudio(context.Background(), story.ID, 1); err == nil {
		t.Fatalf("expected narrator error")
	}
	if store.HasChapterAudio(story.ID, 1) {
		t.Fatalf("failed narration must not persist a clip")
	}
}

func TestChapterAudio(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)
	svc := NewAudioService(db, store, &fakeNarrator{})

	if _, err := svc.ChapterAudio(context.Background(), "s1", 1); !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("expected ErrAudioNotFound, got %v", err)
	}
	if err := store.SaveChapterAudio("s1", 1, []byte{1, 2, 3}); err != nil {
		t.Fatalf("SaveChapterAudio: %v", err)
	}
	clip, err := svc.ChapterAudio(context.Background(), "s1", 1)
	if err != nil || len(clip) != 3 {
		t.Fatalf("ChapterAudio: %q, %v", clip, err)
	}
}
