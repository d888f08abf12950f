package llm

import (
	"strings"
	"testing"
)

func TestBuildChapterPrompt_FirstChapterIncludesPremise(t *testing.T) {
	got := BuildChapterPrompt(ChapterRequest{
		Number:        1,
		TotalChapters: 3,
		Prompt:        "A robot learns to paint",
	})
	if !strings.HasPrefix(got, "Write Chapter 1 of 3") {
		t.Fatalf("prompt = %q", got)
	}
	if !strings.Contains(got, "Story prompt: A robot learns to paint") {
		t.Fatalf("first chapter must include the premise: %q", got)
	}
	if strings.Contains(got, "Previous chapter") {
		t.Fatalf("first chapter must not carry continuation context: %q", got)
	}
}

func TestBuildChapterPrompt_LaterChapterUsesPreviousText(t *testing.T) {
	got := BuildChapterPrompt(ChapterRequest{
		Number:          2,
		TotalChapters:   3,
		Prompt:          "A robot learns to paint",
		PreviousChapter: "The robot mixed its first color.",
	})
	if !strings.Contains(got, "Previous chapter:\nThe robot mixed its first color.") {
		t.Fatalf("continuation context missing: %q", got)
	}
	if strings.Contains(got, "Story prompt") {
		t.Fatalf("later chapters must not restate the premise: %q", got)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		`"The Painted Machine"`:  "The Painted Machine",
		`  'Brush and Bolt'  `:   "Brush and Bolt",
		"Plain Title":            "Plain Title",
		"\n\"Quoted\"\n":         "Quoted",
		`"It's a "Nested" One"`:  `It's a "Nested" One`,
	}
	for in, want := range cases {
		if got := CleanTitle(in); got != want {
			t.Fatalf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNew_RequiresKeyAndModel(t *testing.T) {
	if _, err := New(Config{Model: "m"}); err == nil {
		t.Fatalf("expected error without API key")
	}
	if _, err := New(Config{APIKey: "k"}); err == nil {
		t.Fatalf("expected error without model")
	}
	c, err := New(Config{APIKey: "k", Model: "m"})
	if err != nil || c == nil {
		t.Fatalf("New: %v", err)
	}
}
