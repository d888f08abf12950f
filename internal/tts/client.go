// Package tts wraps the external text-to-speech collaborator behind a small
// interface so services can substitute doubles in tests. The OpenAI-backed
// client narrates one text chunk per call, returning encoded MP3 bytes, with
// a per-call timeout.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Synthesizer turns a text chunk into encoded audio. Implementations must be
// safe for concurrent use and honor the provided context.
type Synthesizer interface {
	// Speak narrates text and returns the encoded clip (MP3).
	Speak(ctx context.Context, text string) ([]byte, error)
}

// Config configures the OpenAI-backed synthesizer.
type Config struct {
	APIKey  string
	BaseURL string // optional override
	Model   string // e.g. "tts-1"
	Voice   string // e.g. "nova"
	Timeout time.Duration
}

// Client calls the OpenAI speech API with a fixed model and voice.
type Client struct {
	api     *openai.Client
	model   openai.SpeechModel
	voice   openai.SpeechVoice
	timeout time.Duration
}

// New constructs a Client from cfg. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("tts: API key is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceNova)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		api:     openai.NewClientWithConfig(conf),
		model:   openai.SpeechModel(model),
		voice:   openai.SpeechVoice(voice),
		timeout: timeout,
	}, nil
}

// Speak narrates one chunk of text as MP3. Chunking to the provider's input
// limit is the caller's responsibility (see internal/audio.ChunkText).
func (c *Client) Speak(ctx context.Context, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("tts: speech synthesis: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("tts: reading speech response: %w", err)
	}
	return audio, nil
}
