// Story HTTP handlers.
//
// This file exposes endpoints for story resources:
//   - POST   /api/stories             (create from the builder form, redirect to editor)
//   - DELETE /api/stories/{id}        (delete story, chapters and artifacts)
//   - PUT    /api/stories/{id}/title  (rename, returns the title fragment)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. It also declares the service
// contracts consumed by every handler in this package.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkellogg/storymode/internal/domain"
	"github.com/tkellogg/storymode/internal/services"
	"github.com/tkellogg/storymode/internal/utils"
)

//
// Service contracts (context-aware)
//

// StoryService defines story lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type StoryService interface {
	// Create inserts a new story from a prompt with chapter/word targets.
	Create(ctx context.Context, prompt string, numChapters, wordsPerChapter int) (*domain.Story, error)
	// Get fetches a story by ID.
	Get(ctx context.Context, id string) (*domain.Story, error)
	// ListRecent returns the most recently created stories, newest first.
	ListRecent(ctx context.Context) ([]domain.Story, error)
	// UpdateTitle renames a story and returns the updated record.
	UpdateTitle(ctx context.Context, id, title string) (*domain.Story, error)
	// Delete removes a story, its chapters and its on-disk artifacts.
	Delete(ctx context.Context, id string) error
}

// ChapterService defines chapter generation and retrieval operations.
type ChapterService interface {
	// Generate produces and persists the text of one chapter.
	Generate(ctx context.Context, storyID string, number int) (string, error)
	// Get returns a chapter's text and narration status.
	Get(ctx context.Context, storyID string, number int) (*services.ChapterContent, error)
	// List returns a story's chapter markers in order plus the story itself.
	List(ctx context.Context, storyID string) (*services.ChapterListing, error)
}

// AudioService defines per-chapter narration operations.
type AudioService interface {
	// GenerateChapterAudio narrates a chapter and persists the clip.
	GenerateChapterAudio(ctx context.Context, storyID string, number int) error
	// ChapterAudio returns a chapter's narration bytes.
	ChapterAudio(ctx context.Context, storyID string, number int) ([]byte, error)
}

// AudiobookService defines full-story audiobook operations.
type AudiobookService interface {
	// Assemble builds the audiobook from all chapter narrations.
	Assemble(ctx context.Context, storyID string) ([]byte, error)
	// Audiobook returns the previously assembled audiobook bytes.
	Audiobook(ctx context.Context, storyID string) ([]byte, error)
	// Has reports whether an assembled audiobook exists.
	Has(ctx context.Context, storyID string) bool
}

// PipelineService defines whole-story batch generation.
type PipelineService interface {
	// GenerateAll fills in missing chapter text and narration sequentially.
	GenerateAll(ctx context.Context, storyID string) (*services.GenerateAllResult, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for stories, chapters, narration and
// audiobooks. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	storySvc     StoryService
	chapterSvc   ChapterService
	audioSvc     AudioService
	audiobookSvc AudiobookService
	pipelineSvc  PipelineService

	// DefaultChapters/DefaultWords prefill the builder form and back absent
	// form fields.
	DefaultChapters int
	DefaultWords    int
}

// New constructs a Handlers instance bound to the given services.
func New(story StoryService, chapter ChapterService, audio AudioService, audiobook AudiobookService, pipeline PipelineService) *Handlers {
	return &Handlers{
		storySvc:        story,
		chapterSvc:      chapter,
		audioSvc:        audio,
		audiobookSvc:    audiobook,
		pipelineSvc:     pipeline,
		DefaultChapters: 10,
		DefaultWords:    1000,
	}
}

//
// Handlers
//

// CreateStory godoc
// @ID          createStory
// @Summary     Create a new story
// @Description Creates a story from the builder form and redirects to its editor page.
// @Tags        Stories
// @Accept      x-www-form-urlencoded
// @Produce     html
//
// @Param       prompt             formData  string  true   "Story premise"
// @Param       total_chapters     formData  int     false  "Target chapter count"  default(10)
// @Param       words_per_chapter  formData  int     false  "Target words per chapter"  default(1000)
//
// @Success     303  {string}  string  "Redirect to /stories/{id}/edit"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty prompt"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories [post]
func (h *Handlers) CreateStory(c *gin.Context) {
	prompt := c.PostForm("prompt")
	numChapters := utils.AtoiPositive(c.PostForm("total_chapters"), h.DefaultChapters)
	wordsPerChapter := utils.AtoiPositive(c.PostForm("words_per_chapter"), h.DefaultWords)

	story, err := h.storySvc.Create(c.Request.Context(), prompt, numChapters, wordsPerChapter)
	if err != nil {
		if errors.Is(err, services.ErrEmptyPrompt) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/stories/"+story.ID+"/edit")
}

// DeleteStory godoc
// @ID          deleteStory
// @Summary     Delete a story
// @Description Removes the story, its chapter rows and all on-disk artifacts.
// @Tags        Stories
//
// @Param       id  path  string  true  "Story ID"
//
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse  "Story not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id} [delete]
func (h *Handlers) DeleteStory(c *gin.Context) {
	err := h.storySvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrStoryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		return
	}
	noContent(c)
}

// UpdateStoryTitle godoc
// @ID          updateStoryTitle
// @Summary     Rename a story
// @Description Updates the story title and returns the refreshed title fragment.
// @Tags        Stories
// @Accept      x-www-form-urlencoded
// @Produce     html
//
// @Param       id     path      string  true  "Story ID"
// @Param       title  formData  string  true  "New title"
//
// @Success     200  {string}  string  "Title fragment"
// @Failure     400  {object}  handlers.ErrorResponse  "Empty title"
// @Failure     404  {object}  handlers.ErrorResponse  "Story not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id}/title [put]
func (h *Handlers) UpdateStoryTitle(c *gin.Context) {
	story, err := h.storySvc.UpdateTitle(c.Request.Context(), c.Param("id"), c.PostForm("title"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyTitle):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title is required")
		case errors.Is(err, services.ErrStoryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}
	c.HTML(http.StatusOK, "title_display.tmpl", gin.H{"Story": story})
}
