package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/tkellogg/storymode/internal/tts"
)

// Generator narrates chapter text by chunking it, synthesizing every chunk
// in order, and concatenating the clips with no gap.
type Generator struct {
	// TTS is the speech collaborator.
	TTS tts.Synthesizer
	// MaxChunkChars caps chunk size; 0 means DefaultMaxChunkChars.
	MaxChunkChars int
}

// Generate narrates text and returns one combined MP3. Chunk order is the
// input order and the combined clip preserves it exactly. Any chunk's
// synthesis failure aborts the whole attempt.
func (g *Generator) Generate(ctx context.Context, text string) ([]byte, error) {
	chunks := ChunkText(text, g.MaxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to narrate")
	}
	log.Debug().Int("chunks", len(chunks)).Msg("narrating text")

	// The single-chunk case needs no concat round-trip.
	if len(chunks) == 1 {
		clip, err := g.TTS.Speak(ctx, chunks[0])
		if err != nil {
			return nil, fmt.Errorf("synthesizing chunk 1/1: %w", err)
		}
		return clip, nil
	}

	workDir, err := os.MkdirTemp("", "storymode-narration-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	segments := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		clip, err := g.TTS.Speak(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("synthesizing chunk %d/%d: %w", i+1, len(chunks), err)
		}
		seg := filepath.Join(workDir, fmt.Sprintf("segment_%03d.mp3", i))
		if err := os.WriteFile(seg, clip, 0o644); err != nil {
			return nil, fmt.Errorf("writing chunk %d/%d: %w", i+1, len(chunks), err)
		}
		segments = append(segments, seg)
	}

	combined := filepath.Join(workDir, "combined.mp3")
	if err := Concat(ctx, segments, combined); err != nil {
		return nil, fmt.Errorf("concatenating %d segments: %w", len(segments), err)
	}
	return os.ReadFile(combined)
}
