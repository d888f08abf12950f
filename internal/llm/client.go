// Package llm wraps the external text-generation collaborator behind a small
// interface so services can be tested with doubles. The OpenAI-backed client
// builds chapter prompts (story premise for chapter one, previous chapter
// text as continuation context afterwards) and title prompts, and enforces a
// per-call timeout so a stalled upstream never blocks a request forever.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChapterRequest carries everything needed to generate one chapter.
type ChapterRequest struct {
	// Number is the 1-based chapter position.
	Number int
	// TotalChapters is the story's target chapter count.
	TotalChapters int
	// WordsPerChapter is the target length; the token budget is twice this
	// value as a heuristic buffer.
	WordsPerChapter int
	// Prompt is the story premise; only included for the first chapter.
	Prompt string
	// PreviousChapter is the full text of chapter Number-1, empty for the
	// first chapter.
	PreviousChapter string
}

// Generator produces story text. Implementations must be safe for concurrent
// use and honor the provided context.
type Generator interface {
	// Chapter generates the text of one chapter.
	Chapter(ctx context.Context, req ChapterRequest) (string, error)
	// Title derives a short story title from the premise and the first
	// chapter's text.
	Title(ctx context.Context, prompt, firstChapter string) (string, error)
}

const (
	chapterSystemPrompt = "You are a creative storyteller. Write engaging, vivid stories based on user prompts. " +
		"Write only the story content, no other text. " +
		"Write in markdown format. Start the chapter with the chapter title in bold. " +
		"Each chapter should be approximately %d words."

	titleSystemPrompt = "You are a creative writer who creates engaging, concise titles."

	titleMaxTokens = 50
)

// Config configures the OpenAI-backed generator.
type Config struct {
	APIKey           string
	BaseURL          string // optional override, e.g. a gateway
	Model            string
	Temperature      float32
	TitleTemperature float32
	Timeout          time.Duration
}

// Client calls the OpenAI chat completions API.
type Client struct {
	api              *openai.Client
	model            string
	temperature      float32
	titleTemperature float32
	timeout          time.Duration
}

// New constructs a Client from cfg. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Client{
		api:              openai.NewClientWithConfig(conf),
		model:            cfg.Model,
		temperature:      cfg.Temperature,
		titleTemperature: cfg.TitleTemperature,
		timeout:          timeout,
	}, nil
}

// Chapter generates one chapter of story text. The user prompt names the
// chapter position; the premise is attached for chapter one and the previous
// chapter's text for later chapters so the narrative stays continuous.
func (c *Client) Chapter(ctx context.Context, req ChapterRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := BuildChapterPrompt(req)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(chapterSystemPrompt, req.WordsPerChapter),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		Temperature: c.temperature,
		// Twice the word target leaves headroom for markdown and tokens
		// that do not map 1:1 to words.
		MaxTokens: req.WordsPerChapter * 2,
	})
	if err != nil {
		return "", fmt.Errorf("llm: chapter generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: chapter generation returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Title derives a short title from the premise and first chapter. Surrounding
// quotes and whitespace are stripped from the model output.
func (c *Client) Title(ctx context.Context, prompt, firstChapter string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: titleSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(
					"Create a short, engaging title (max 5 words) for this story:\n\nPrompt: %s\n\nFirst chapter:\n%s",
					prompt, firstChapter,
				),
			},
		},
		Temperature: c.titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm: title generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: title generation returned no choices")
	}
	return CleanTitle(resp.Choices[0].Message.Content), nil
}

// BuildChapterPrompt renders the user prompt for a chapter request.
func BuildChapterPrompt(req ChapterRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write Chapter %d of %d", req.Number, req.TotalChapters)
	if req.Number == 1 {
		fmt.Fprintf(&b, "\n\nStory prompt: %s", req.Prompt)
	} else if req.PreviousChapter != "" {
		fmt.Fprintf(&b, "\n\nPrevious chapter:\n%s", req.PreviousChapter)
	}
	return b.String()
}

// CleanTitle strips surrounding quotes and whitespace from a generated title.
func CleanTitle(s string) string {
	return strings.Trim(s, "\" \t\n'")
}
