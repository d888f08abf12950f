// Chapter HTTP handlers.
//
// This file exposes endpoints for chapter resources:
//   - POST /api/stories/{id}/chapters               (generate, returns raw markdown)
//   - GET  /api/stories/{id}/chapters/{n}           (chapter fragment with audio control)
//   - GET  /api/stories/{id}/chapters-list          (progress fragment, weak ETag)
//   - POST /api/stories/{id}/generate-all           (batch text + narration)
//
// Generation runs inside the request, mirroring the editor's htmx flow: the
// button that triggered generation swaps in whatever these handlers return.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tkellogg/storymode/internal/repo"
	"github.com/tkellogg/storymode/internal/services"
	"github.com/tkellogg/storymode/internal/utils"
)

// chapterItem is one row of the chapters-list fragment.
type chapterItem struct {
	Number    int
	Generated bool
	// Next marks the first ungenerated chapter, the only one the UI offers
	// to generate (chapters build on their predecessor).
	Next      bool
	CreatedAt time.Time
}

// GenerateChapter godoc
// @ID          generateChapter
// @Summary     Generate one chapter
// @Description Generates the chapter's text with the language model and returns it as raw markdown.
// @Tags        Chapters
// @Accept      x-www-form-urlencoded
// @Produce     plain
//
// @Param       id              path      string  true   "Story ID"
// @Param       chapter_number  formData  int     false  "1-based chapter number"  default(1)
//
// @Success     200  {string}  string  "Chapter markdown"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid chapter number"
// @Failure     404  {object}  handlers.ErrorResponse  "Story or previous chapter missing"
// @Failure     409  {object}  handlers.ErrorResponse  "Chapter already exists"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /stories/{id}/chapters [post]
func (h *Handlers) GenerateChapter(c *gin.Context) {
	number := utils.AtoiDefault(c.PostForm("chapter_number"), 1)

	text, err := h.chapterSvc.Generate(c.Request.Context(), c.Param("id"), number)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidChapter):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chapter number must be positive")
		case errors.Is(err, services.ErrStoryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
		case errors.Is(err, services.ErrChapterNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "previous chapter not found")
		case errors.Is(err, services.ErrChapterExists):
			fail(c, http.StatusConflict, ErrCodeConflict, "chapter already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		}
		return
	}
	c.String(http.StatusOK, text)
}

// GetChapter godoc
// @ID          getChapter
// @Summary     Get a chapter fragment
// @Description Returns the chapter's markdown wrapped in an HTML fragment with its narration control.
// @Tags        Chapters
// @Produce     html
//
// @Param       id  path  string  true  "Story ID"
// @Param       n   path  int     true  "1-based chapter number"
//
// @Success     200  {string}  string  "Chapter fragment"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid chapter number"
// @Failure     404  {object}  handlers.ErrorResponse  "Chapter not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id}/chapters/{n} [get]
func (h *Handlers) GetChapter(c *gin.Context) {
	storyID := c.Param("id")
	number, ok := chapterParam(c)
	if !ok {
		return
	}

	content, err := h.chapterSvc.Get(c.Request.Context(), storyID, number)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidChapter):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chapter number must be positive")
		case errors.Is(err, services.ErrChapterNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chapter not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	c.HTML(http.StatusOK, "chapter_fragment.tmpl", gin.H{
		"StoryID":  storyID,
		"Number":   content.Number,
		"Text":     content.Text,
		"HasAudio": content.HasAudio,
	})
}

// ChaptersList godoc
// @ID          chaptersList
// @Summary     Get the chapters-list fragment
// @Description Returns the generation progress fragment. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Chapters
// @Produce     html
//
// @Param       id             path    string  true   "Story ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {string}  string  "Chapters-list fragment"
// @Header      200  {string}  ETag  "Weak ETag for current chapter state"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Story not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id}/chapters-list [get]
func (h *Handlers) ChaptersList(c *gin.Context) {
	ctx := c.Request.Context()
	storyID := c.Param("id")

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.chapterSvc.(*services.ChapterService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ChapterStats(ctx, db, storyID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"chapters:%s:%d:%d"`, storyID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	listing, err := h.chapterSvc.List(ctx, storyID)
	if err != nil {
		if errors.Is(err, services.ErrStoryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	c.HTML(http.StatusOK, "chapters_list.tmpl", chaptersListData(listing, h.hasAudiobook(ctx, storyID)))
}

// hasAudiobook reports whether an assembled audiobook exists.
func (h *Handlers) hasAudiobook(ctx context.Context, storyID string) bool {
	return h.audiobookSvc != nil && h.audiobookSvc.Has(ctx, storyID)
}

// chaptersListData shapes a listing into the chapters_list template payload.
func chaptersListData(listing *services.ChapterListing, hasAudiobook bool) gin.H {
	generated := make(map[int]time.Time, len(listing.Chapters))
	for _, ch := range listing.Chapters {
		generated[ch.ChapterNumber] = ch.CreatedAt
	}

	items := make([]chapterItem, 0, listing.Story.NumChapters)
	nextMarked := false
	for n := 1; n <= listing.Story.NumChapters; n++ {
		ts, ok := generated[n]
		item := chapterItem{Number: n, Generated: ok, CreatedAt: ts}
		if !ok && !nextMarked {
			item.Next = true
			nextMarked = true
		}
		items = append(items, item)
	}

	return gin.H{
		"StoryID":      listing.Story.ID,
		"NumChapters":  listing.Story.NumChapters,
		"Generated":    len(listing.Chapters),
		"Items":        items,
		"HasAudiobook": hasAudiobook,
	}
}

// GenerateAll godoc
// @ID          generateAll
// @Summary     Generate all remaining chapters and narration
// @Description Walks the story's chapters in order, generating missing text and narration. Safe to repeat after a partial failure.
// @Tags        Chapters
// @Produce     json
//
// @Param       id  path  string  true  "Story ID"
//
// @Success     200  {object}  services.GenerateAllResult
// @Failure     404  {object}  handlers.ErrorResponse  "Story not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Generation failed"
// @Router      /stories/{id}/generate-all [post]
func (h *Handlers) GenerateAll(c *gin.Context) {
	res, err := h.pipelineSvc.GenerateAll(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrStoryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, res)
}

// chapterParam parses the :n path parameter, failing the request with 400 on
// anything that is not a positive integer.
func chapterParam(c *gin.Context) (int, bool) {
	n := utils.AtoiDefault(c.Param("n"), 0)
	if n < 1 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chapter number must be a positive integer")
		return 0, false
	}
	return n, true
}
