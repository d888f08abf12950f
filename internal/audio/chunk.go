// Package audio implements the narration pipeline: splitting chapter text
// into TTS-sized chunks, synthesizing each chunk in order, and concatenating
// the resulting clips (and, for audiobooks, silence gaps) with ffmpeg.
package audio

import "strings"

// DefaultMaxChunkChars is the per-chunk character ceiling, sized under the
// TTS provider's 4096-character input limit.
const DefaultMaxChunkChars = 4000

// ChunkText splits text into chunks of at most maxLen characters, breaking
// preferentially at sentence boundaries. Sentences are detected by the ". "
// separator and the separator is reattached to every sentence except the
// last, so joining the chunks in order reproduces the input (newlines are
// flattened to spaces first).
//
// A single sentence longer than maxLen is not split further: it passes
// through as one oversized chunk and may be rejected by the provider's own
// limit. Returns nil for empty input.
func ChunkText(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkChars
	}
	text = strings.ReplaceAll(text, "\n", " ")
	if text == "" {
		return nil
	}

	sentences := strings.Split(text, ". ")

	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	for i, sentence := range sentences {
		if i < len(sentences)-1 {
			sentence += ". "
		}
		if curLen+len(sentence) > maxLen {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cur.WriteString(sentence)
			curLen = len(sentence)
			continue
		}
		cur.WriteString(sentence)
		curLen += len(sentence)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
