// Package domain defines the persistence models for stories and chapters.
// These types are mapped with GORM and form the metadata layer of the
// application. Chapter text and audio are deliberately NOT stored here:
// they live on the filesystem (see internal/storage) and the chapter row
// acts only as a marker that a given chapter number has been generated.
package domain

import (
	"time"
)

// Story represents a generated multi-chapter story. The title starts out
// equal to the user's prompt and is replaced once by a generated title after
// the first chapter is written.
//
// Fields:
//   - ID: UUID primary key (char(36)), issued at insert.
//   - Title: current display title (initially the prompt).
//   - Prompt: immutable user-supplied premise.
//   - NumChapters: target chapter count for the story.
//   - WordsPerChapter: target length per chapter, used to budget generation.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Story struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	Title           string    `json:"title"             gorm:"type:varchar(255);not null"`
	Prompt          string    `json:"prompt"            gorm:"type:text;not null"`
	NumChapters     int       `json:"num_chapters"      gorm:"not null;default:10"`
	WordsPerChapter int       `json:"words_per_chapter" gorm:"not null;default:1000"`
	CreatedAt       time.Time `json:"created_at"        gorm:"index"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Story.
func (Story) TableName() string { return "stories" }

// Chapter marks that a chapter has been generated for a story. It carries no
// content; the markdown text and MP3 audio are filesystem artifacts keyed by
// (story id, chapter number). Chapter numbers are 1-based and unique per
// story, enforced by a composite unique index.
type Chapter struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	StoryID       string    `json:"story_id"       gorm:"type:char(36);not null;uniqueIndex:ux_story_chapter,priority:1"`
	ChapterNumber int       `json:"chapter_number" gorm:"not null;uniqueIndex:ux_story_chapter,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Story is the parent record. Chapters are cascade-deleted if their
	// story row is removed through the association.
	Story Story `json:"-" gorm:"foreignKey:StoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Chapter.
func (Chapter) TableName() string { return "chapters" }

// User is a legacy table carried over from the original schema. Nothing in
// the current application reads or writes it, but it is still declared so
// existing databases keep migrating cleanly.
type User struct {
	ID        string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string    `json:"name"  gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Draft is a legacy table carried over from the original schema; unused.
type Draft struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title"   gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Prompt    string    `json:"prompt"  gorm:"type:text;not null"`
	AuthorID  string    `json:"author_id" gorm:"type:char(36);index"`
	StoryID   string    `json:"story_id"  gorm:"type:char(36);index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Draft.
func (Draft) TableName() string { return "drafts" }
