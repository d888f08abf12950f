// Server-rendered page handlers.
//
// This file exposes the three full HTML pages of the UI:
//   - GET /                    (home, recent stories)
//   - GET /story-builder       (new story form)
//   - GET /stories/{id}/edit   (story editor)
//
// Pages render server-side; the editor then drives all further interaction
// through the fragment endpoints via htmx.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkellogg/storymode/internal/services"
)

// Home renders the landing page with the most recent stories.
func (h *Handlers) Home(c *gin.Context) {
	stories, err := h.storySvc.ListRecent(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	c.HTML(http.StatusOK, "home.tmpl", gin.H{"Stories": stories})
}

// StoryBuilder renders the new-story form, prefilled with the configured
// chapter and word targets.
func (h *Handlers) StoryBuilder(c *gin.Context) {
	c.HTML(http.StatusOK, "story_builder.tmpl", gin.H{
		"DefaultChapters": h.DefaultChapters,
		"DefaultWords":    h.DefaultWords,
	})
}

// EditStory renders the editor page for one story.
func (h *Handlers) EditStory(c *gin.Context) {
	story, err := h.storySvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrStoryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.HTML(http.StatusOK, "story_editor.tmpl", gin.H{"Story": story})
}
