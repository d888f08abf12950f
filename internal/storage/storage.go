// Package storage owns the on-disk layout for generated artifacts. Chapter
// text (markdown), chapter audio (MP3) and the assembled audiobook live in a
// per-story tree under the configured data root:
//
//	{root}/story/{story_id}/chapter/{n}/text.md
//	{root}/story/{story_id}/chapter/{n}/audio.mp3
//	{root}/story/{story_id}/audiobook.mp3
//
// Operations are pure path-based reads and writes: parent directories are
// created on demand, there is no locking, and concurrent writers to the same
// path race with last-write-wins semantics. Inputs are not validated, so a
// crafted story id could escape the root; the metadata layer is the only
// producer of ids today. TODO: reject path separators in story ids once the
// id format is frozen.
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
)

const (
	textFileName      = "text.md"
	audioFileName     = "audio.mp3"
	audiobookFileName = "audiobook.mp3"
)

// Store resolves and persists story artifacts under a single root directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir. The root itself is created lazily
// on first write.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the data root directory.
func (s *Store) Root() string { return s.root }

// StoryDir returns the directory that holds everything for one story.
func (s *Store) StoryDir(storyID string) string {
	return filepath.Join(s.root, "story", storyID)
}

// ChapterDir returns the directory for one chapter of a story.
func (s *Store) ChapterDir(storyID string, chapter int) string {
	return filepath.Join(s.StoryDir(storyID), "chapter", strconv.Itoa(chapter))
}

// ChapterTextPath returns the path of a chapter's markdown file.
func (s *Store) ChapterTextPath(storyID string, chapter int) string {
	return filepath.Join(s.ChapterDir(storyID, chapter), textFileName)
}

// ChapterAudioPath returns the path of a chapter's narration file.
func (s *Store) ChapterAudioPath(storyID string, chapter int) string {
	return filepath.Join(s.ChapterDir(storyID, chapter), audioFileName)
}

// AudiobookPath returns the path of the assembled audiobook for a story.
func (s *Store) AudiobookPath(storyID string) string {
	return filepath.Join(s.StoryDir(storyID), audiobookFileName)
}

// SaveChapterText writes a chapter's markdown content, creating parent
// directories as needed.
func (s *Store) SaveChapterText(storyID string, chapter int, content string) error {
	return writeFile(s.ChapterTextPath(storyID, chapter), []byte(content))
}

// ChapterText reads a chapter's markdown content. It returns os.ErrNotExist
// (wrapped) when the file is absent.
func (s *Store) ChapterText(storyID string, chapter int) (string, error) {
	b, err := os.ReadFile(s.ChapterTextPath(storyID, chapter))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HasChapterText reports whether a chapter's text file exists.
func (s *Store) HasChapterText(storyID string, chapter int) bool {
	return fileExists(s.ChapterTextPath(storyID, chapter))
}

// SaveChapterAudio writes a chapter's narration bytes, creating parent
// directories as needed.
func (s *Store) SaveChapterAudio(storyID string, chapter int, audio []byte) error {
	return writeFile(s.ChapterAudioPath(storyID, chapter), audio)
}

// ChapterAudio reads a chapter's narration bytes. It returns os.ErrNotExist
// (wrapped) when the file is absent.
func (s *Store) ChapterAudio(storyID string, chapter int) ([]byte, error) {
	return os.ReadFile(s.ChapterAudioPath(storyID, chapter))
}

// HasChapterAudio reports whether a chapter's narration file exists.
func (s *Store) HasChapterAudio(storyID string, chapter int) bool {
	return fileExists(s.ChapterAudioPath(storyID, chapter))
}

// SaveAudiobook writes the assembled audiobook, overwriting any previous one.
func (s *Store) SaveAudiobook(storyID string, audio []byte) error {
	return writeFile(s.AudiobookPath(storyID), audio)
}

// Audiobook reads the assembled audiobook bytes. It returns os.ErrNotExist
// (wrapped) when none has been assembled.
func (s *Store) Audiobook(storyID string) ([]byte, error) {
	return os.ReadFile(s.AudiobookPath(storyID))
}

// HasAudiobook reports whether an assembled audiobook exists.
func (s *Store) HasAudiobook(storyID string) bool {
	return fileExists(s.AudiobookPath(storyID))
}

// RemoveStory deletes a story's entire subtree. Removing a story that has no
// artifacts is not an error.
func (s *Store) RemoveStory(storyID string) error {
	err := os.RemoveAll(s.StoryDir(storyID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// IsNotExist reports whether err means a requested artifact is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
