// Narration and audiobook HTTP handlers.
//
// This file exposes endpoints for audio artifacts:
//   - POST /api/stories/{id}/chapters/{n}/audio  (narrate a chapter, returns player fragment)
//   - GET  /api/stories/{id}/chapters/{n}/audio  (stream chapter MP3)
//   - POST /api/stories/{id}/audiobook           (assemble, returns player fragment)
//   - GET  /api/stories/{id}/audiobook           (stream audiobook MP3)
//
// Audio is streamed with Content-Type audio/mpeg; the POST variants return
// small htmx player fragments pointing back at the GET endpoints so the UI
// never embeds raw bytes.
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkellogg/storymode/internal/services"
)

const audioMIME = "audio/mpeg"

// GenerateChapterAudio godoc
// @ID          generateChapterAudio
// @Summary     Narrate a chapter
// @Description Synthesizes narration for the chapter's text and returns an audio player fragment.
// @Tags        Audio
// @Produce     html
//
// @Param       id  path  string  true  "Story ID"
// @Param       n   path  int     true  "1-based chapter number"
//
// @Success     200  {string}  string  "Audio player fragment"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid chapter number"
// @Failure     404  {object}  handlers.ErrorResponse  "Story or chapter text missing"
// @Failure     500  {object}  handlers.ErrorResponse  "Narration failed"
// @Router      /stories/{id}/chapters/{n}/audio [post]
func (h *Handlers) GenerateChapterAudio(c *gin.Context) {
	storyID := c.Param("id")
	number, okNum := chapterParam(c)
	if !okNum {
		return
	}

	if err := h.audioSvc.GenerateChapterAudio(c.Request.Context(), storyID, number); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidChapter):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chapter number must be positive")
		case errors.Is(err, services.ErrStoryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
		case errors.Is(err, services.ErrChapterNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chapter text not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeNarrateFailed, err.Error())
		}
		return
	}
	c.HTML(http.StatusOK, "audio_player.tmpl", gin.H{
		"Src": fmt.Sprintf("/api/stories/%s/chapters/%d/audio", storyID, number),
	})
}

// GetChapterAudio godoc
// @ID          getChapterAudio
// @Summary     Stream chapter narration
// @Tags        Audio
// @Produce     mpeg
//
// @Param       id  path  string  true  "Story ID"
// @Param       n   path  int     true  "1-based chapter number"
//
// @Success     200  {string}  binary  "MP3 bytes"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid chapter number"
// @Failure     404  {object}  handlers.ErrorResponse  "No narration for this chapter"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id}/chapters/{n}/audio [get]
func (h *Handlers) GetChapterAudio(c *gin.Context) {
	storyID := c.Param("id")
	number, okNum := chapterParam(c)
	if !okNum {
		return
	}

	clip, err := h.audioSvc.ChapterAudio(c.Request.Context(), storyID, number)
	if err != nil {
		if errors.Is(err, services.ErrAudioNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chapter audio not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Data(http.StatusOK, audioMIME, clip)
}

// AssembleAudiobook godoc
// @ID          assembleAudiobook
// @Summary     Assemble the audiobook
// @Description Concatenates every chapter's narration with silence gaps and returns an audio player fragment.
// @Tags        Audio
// @Produce     html
//
// @Param       id  path  string  true  "Story ID"
//
// @Success     200  {string}  string  "Audio player fragment"
// @Failure     400  {object}  handlers.ErrorResponse  "Narration still missing for some chapters"
// @Failure     404  {object}  handlers.ErrorResponse  "Story not found or has no chapters"
// @Failure     500  {object}  handlers.ErrorResponse  "Assembly failed"
// @Router      /stories/{id}/audiobook [post]
func (h *Handlers) AssembleAudiobook(c *gin.Context) {
	storyID := c.Param("id")

	if _, err := h.audiobookSvc.Assemble(c.Request.Context(), storyID); err != nil {
		switch {
		case errors.Is(err, services.ErrStoryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story not found")
		case errors.Is(err, services.ErrNoChapters):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "story has no chapters")
		case errors.Is(err, services.ErrAudiobookNotReady):
			fail(c, http.StatusBadRequest, ErrCodeNotReady, "every chapter needs narration before assembly")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAssembleFailed, err.Error())
		}
		return
	}
	c.HTML(http.StatusOK, "audio_player.tmpl", gin.H{
		"Src": fmt.Sprintf("/api/stories/%s/audiobook", storyID),
	})
}

// GetAudiobook godoc
// @ID          getAudiobook
// @Summary     Stream the audiobook
// @Tags        Audio
// @Produce     mpeg
//
// @Param       id  path  string  true  "Story ID"
//
// @Success     200  {string}  binary  "MP3 bytes"
// @Failure     404  {object}  handlers.ErrorResponse  "No audiobook assembled yet"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /stories/{id}/audiobook [get]
func (h *Handlers) GetAudiobook(c *gin.Context) {
	book, err := h.audiobookSvc.Audiobook(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrAudiobookNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "audiobook not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	c.Data(http.StatusOK, audioMIME, book)
}
