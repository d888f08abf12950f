package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Narration clips come back from the provider as 24 kHz mono MP3; the
// generated silence gap matches so the concat demuxer can stream-copy.
const (
	silenceSampleRate = 24000
)

// Concat concatenates audio files into outputPath using ffmpeg's concat
// demuxer with stream copy (no re-encode). Order of inputFiles is preserved
// exactly. A single input is copied as-is.
func Concat(ctx context.Context, inputFiles []string, outputPath string) error {
	if len(inputFiles) == 0 {
		return fmt.Errorf("no input files provided")
	}

	// Single file case - just copy
	if len(inputFiles) == 1 {
		data, err := os.ReadFile(inputFiles[0])
		if err != nil {
			return fmt.Errorf("failed to read single input file: %w", err)
		}
		return os.WriteFile(outputPath, data, 0o644)
	}

	// Concat list file; the demuxer requires escaped single quotes.
	listPath := outputPath + ".txt"
	var lines []string
	for _, f := range inputFiles {
		escapedPath := strings.ReplaceAll(f, "'", "'\\''")
		lines = append(lines, fmt.Sprintf("file '%s'", escapedPath))
	}
	if err := os.WriteFile(listPath, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// Silence writes an MP3 clip of the given duration containing only silence,
// encoded to match the narration clips so it can be concatenated without
// re-encoding.
func Silence(ctx context.Context, d time.Duration, outputPath string) error {
	if d <= 0 {
		return fmt.Errorf("silence duration must be positive, got %v", d)
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", silenceSampleRate),
		"-t", fmt.Sprintf("%.3f", d.Seconds()),
		"-acodec", "libmp3lame",
		"-y",
		outputPath,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg silence failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}

// Duration uses ffprobe to measure an audio file, in milliseconds.
func Duration(ctx context.Context, audioPath string) (int, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return int(durationSec * 1000), nil
}

// CheckFFmpeg reports whether ffmpeg and ffprobe are available on PATH.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return nil
}
