// Package services defines the business logic for stories, chapters, narration
// and audiobook assembly. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Story-related errors.
var (
	// ErrStoryNotFound indicates that the requested story does not exist.
	ErrStoryNotFound = errors.New("story not found")

	// ErrEmptyPrompt is returned when a request to create a story contains
	// an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrEmptyTitle is returned when a title update contains only whitespace.
	ErrEmptyTitle = errors.New("title is empty")
)

// Chapter-related errors.
var (
	// ErrChapterNotFound indicates that the requested chapter (or the previous
	// chapter required as generation context) has no usable content.
	ErrChapterNotFound = errors.New("chapter not found")

	// ErrChapterExists is returned when generation is requested for a chapter
	// number that already has content, so a retried attempt is
	// distinguishable from a real failure.
	ErrChapterExists = errors.New("chapter already exists")

	// ErrInvalidChapter is returned when a chapter number is not a positive
	// integer.
	ErrInvalidChapter = errors.New("chapter number must be positive")
)

// Narration- and audiobook-related errors.
var (
	// ErrAudioNotFound indicates that a chapter has no narration yet.
	ErrAudioNotFound = errors.New("chapter audio not found")

	// ErrNoChapters is returned when audiobook assembly is requested for a
	// story that has no chapters at all.
	ErrNoChapters = errors.New("story has no chapters")

	// ErrAudiobookNotReady is returned when at least one chapter in the
	// story's target range still lacks narration; no partial audiobook is
	// produced.
	ErrAudiobookNotReady = errors.New("audiobook not ready: missing chapter audio")

	// ErrAudiobookNotFound indicates that no audiobook has been assembled yet.
	ErrAudiobookNotFound = errors.New("audiobook not found")
)
