package web

import (
	"strings"
	"testing"

	"github.com/tkellogg/storymode/internal/domain"
)

func TestTemplates_AllFragmentsPresent(t *testing.T) {
	tset := Templates()
	for _, name := range []string{
		"home.tmpl",
		"story_builder.tmpl",
		"story_editor.tmpl",
		"title_display.tmpl",
		"chapters_list.tmpl",
		"chapter_fragment.tmpl",
		"audio_player.tmpl",
	} {
		if tset.Lookup(name) == nil {
			t.Fatalf("template %q missing from embedded set", name)
		}
	}
}

func TestTemplates_EditorIncludesTitleFragment(t *testing.T) {
	var sb strings.Builder
	data := map[string]any{
		"Story": &domain.Story{ID: "s1", Title: "The Glass Harbor", Prompt: "p"},
	}
	if err := Templates().ExecuteTemplate(&sb, "story_editor.tmpl", data); err != nil {
		t.Fatalf("execute: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "The Glass Harbor") {
		t.Fatalf("title not rendered: %s", out)
	}
	if !strings.Contains(out, "/api/stories/s1/chapters-list") {
		t.Fatalf("chapters-list wiring missing: %s", out)
	}
}

func TestTemplates_AudioPlayerEscapesSrc(t *testing.T) {
	var sb strings.Builder
	if err := Templates().ExecuteTemplate(&sb, "audio_player.tmpl", map[string]any{
		"Src": "/api/stories/s1/audiobook",
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(sb.String(), `src="/api/stories/s1/audiobook"`) {
		t.Fatalf("player src missing: %s", sb.String())
	}
}
