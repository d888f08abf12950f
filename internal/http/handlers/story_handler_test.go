package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/services"
)

// ---------- CreateStory ----------

func TestCreateStory_EmptyPrompt_Success_Internal(t *testing.T) {
	// Empty prompt -> 400 with error envelope
	{
		h := newStubHandlers(stubStorySvc{
			create: func(context.Context, string, int, int) (*domain.Story, error) {
				return nil, services.ErrEmptyPrompt
			},
		}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.POST("/stories", h.CreateStory)

		w := postForm(r, http.MethodPost, "/stories", url.Values{"prompt": {"   "}})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("empty prompt -> %d", w.Code)
		}
		var out ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Code != ErrCodeBadRequest {
			t.Fatalf("code = %q", out.Code)
		}
	}

	// Success against the real service -> 303 redirect to the editor
	{
		db := newHandlerDB(t)
		store := newHandlerStore(t)
		h := New(services.NewStoryService(db, store), stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.POST("/stories", h.CreateStory)

		w := postForm(r, http.MethodPost, "/stories", url.Values{
			"prompt":            {"a lighthouse keeper finds a message"},
			"total_chapters":    {"3"},
			"words_per_chapter": {"250"},
		})
		if w.Code != http.StatusSeeOther {
			t.Fatalf("create -> %d body=%s", w.Code, w.Body.String())
		}
		loc := w.Header().Get("Location")
		if !strings.HasPrefix(loc, "/stories/") || !strings.HasSuffix(loc, "/edit") {
			t.Fatalf("redirect location = %q", loc)
		}

		id := strings.TrimSuffix(strings.TrimPrefix(loc, "/stories/"), "/edit")
		var story domain.Story
		if err := db.First(&story, "id = ?", id).Error; err != nil {
			t.Fatalf("story row: %v", err)
		}
		if story.NumChapters != 3 || story.WordsPerChapter != 250 {
			t.Fatalf("targets not persisted: %+v", story)
		}
	}

	// Service failure -> 500
	{
		h := newStubHandlers(stubStorySvc{
			create: func(context.Context, string, int, int) (*domain.Story, error) {
				return nil, gorm.ErrInvalidDB
			},
		}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.POST("/stories", h.CreateStory)

		w := postForm(r, http.MethodPost, "/stories", url.Values{"prompt": {"x"}})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("internal -> %d", w.Code)
		}
	}
}

func TestCreateStory_BlankTargetsFallBackToDefaults(t *testing.T) {
	var gotChapters, gotWords int
	h := newStubHandlers(stubStorySvc{
		create: func(_ context.Context, prompt string, nc, wc int) (*domain.Story, error) {
			gotChapters, gotWords = nc, wc
			return &domain.Story{ID: "s1"}, nil
		},
	}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
	h.DefaultChapters = 7
	h.DefaultWords = 400

	r := newEngine()
	r.POST("/stories", h.CreateStory)

	w := postForm(r, http.MethodPost, "/stories", url.Values{
		"prompt":            {"p"},
		"total_chapters":    {"0"},    // non-positive -> default
		"words_per_chapter": {"junk"}, // unparsable -> default
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("create -> %d", w.Code)
	}
	if gotChapters != 7 || gotWords != 400 {
		t.Fatalf("defaults not applied: chapters=%d words=%d", gotChapters, gotWords)
	}
}

// ---------- DeleteStory ----------

func TestDeleteStory_NotFound_And_NoContent(t *testing.T) {
	h := newStubHandlers(stubStorySvc{
		del: func(_ context.Context, id string) error {
			if id == "missing" {
				return services.ErrStoryNotFound
			}
			return nil
		},
	}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
	r := newEngine()
	r.DELETE("/stories/:id", h.DeleteStory)

	w := postForm(r, http.MethodDelete, "/stories/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	w = postForm(r, http.MethodDelete, "/stories/s1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete -> %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("204 body = %q", w.Body.String())
	}
}

// ---------- UpdateStoryTitle ----------

func TestUpdateStoryTitle_Errors_And_Fragment(t *testing.T) {
	// empty title -> 400
	{
		h := newStubHandlers(stubStorySvc{
			updateTitle: func(context.Context, string, string) (*domain.Story, error) {
				return nil, services.ErrEmptyTitle
			},
		}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.PUT("/stories/:id/title", h.UpdateStoryTitle)

		w := postForm(r, http.MethodPut, "/stories/s1/title", url.Values{"title": {"  "}})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("empty title -> %d", w.Code)
		}
	}

	// unknown story -> 404
	{
		h := newStubHandlers(stubStorySvc{
			updateTitle: func(context.Context, string, string) (*domain.Story, error) {
				return nil, services.ErrStoryNotFound
			},
		}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.PUT("/stories/:id/title", h.UpdateStoryTitle)

		w := postForm(r, http.MethodPut, "/stories/nope/title", url.Values{"title": {"T"}})
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing -> %d", w.Code)
		}
	}

	// success -> 200 with the refreshed title fragment
	{
		var gotID, gotTitle string
		h := newStubHandlers(stubStorySvc{
			updateTitle: func(_ context.Context, id, title string) (*domain.Story, error) {
				gotID, gotTitle = id, title
				return &domain.Story{ID: id, Title: title}, nil
			},
		}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})
		r := newEngine()
		r.PUT("/stories/:id/title", h.UpdateStoryTitle)

		w := postForm(r, http.MethodPut, "/stories/s1/title", url.Values{"title": {"The Lighthouse"}})
		if w.Code != http.StatusOK {
			t.Fatalf("update -> %d body=%s", w.Code, w.Body.String())
		}
		if gotID != "s1" || gotTitle != "The Lighthouse" {
			t.Fatalf("service args: id=%q title=%q", gotID, gotTitle)
		}
		if body := w.Body.String(); !strings.Contains(body, "The Lighthouse") {
			t.Fatalf("fragment missing title: %s", body)
		}
		if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
			t.Fatalf("content type = %q", ct)
		}
	}
}

// ---------- Pages ----------

func TestHome_And_EditStory(t *testing.T) {
	// Home lists recent stories.
	h := newStubHandlers(stubStorySvc{
		listRecent: func(context.Context) ([]domain.Story, error) {
			return []domain.Story{{ID: "s1", Title: "First"}, {ID: "s2", Title: "Second"}}, nil
		},
		get: func(_ context.Context, id string) (*domain.Story, error) {
			if id != "s1" {
				return nil, services.ErrStoryNotFound
			}
			return &domain.Story{ID: "s1", Title: "First", NumChapters: 3}, nil
		},
	}, stubChapterSvc{}, stubAudioSvc{}, stubAudiobookSvc{}, stubPipelineSvc{})

	r := newEngine()
	r.GET("/", h.Home)
	r.GET("/story-builder", h.StoryBuilder)
	r.GET("/stories/:id/edit", h.EditStory)

	w := doGet(r, "/")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "First") {
		t.Fatalf("home -> %d body=%s", w.Code, w.Body.String())
	}

	w = doGet(r, "/story-builder")
	if w.Code != http.StatusOK {
		t.Fatalf("builder -> %d", w.Code)
	}

	w = doGet(r, "/stories/s1/edit")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "First") {
		t.Fatalf("editor -> %d body=%s", w.Code, w.Body.String())
	}

	w = doGet(r, "/stories/zzz/edit")
	if w.Code != http.StatusNotFound {
		t.Fatalf("editor missing -> %d", w.Code)
	}
}
