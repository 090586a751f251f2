// Package insight calls an OpenAI-compatible generative provider for
// Pokémon analysis text and narrated audio.
package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/pario-ai/pokegate/pkg/config"
	"github.com/pario-ai/pokegate/pkg/models"
)

const providerName = "insight"

// ErrEmptyResponse is returned when the provider answers without usable content.
var ErrEmptyResponse = errors.New("empty generative response")

// Observer receives the outcome of every provider call.
type Observer interface {
	ObserveUpstream(provider string, start time.Time, err error)
}

// Client generates insight text and speech.
type Client struct {
	client      *openai.Client
	speechModel string
	voice       string
	observer    Observer
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithObserver registers o for call latency.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the provider described by cfg.
func New(cfg config.InsightConfig, opts ...Option) *Client {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "unset" // local providers accept any key
	}
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	c := &Client{
		client:      openai.NewClientWithConfig(oc),
		speechModel: cfg.SpeechModel,
		voice:       cfg.Voice,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateInsight asks model for an analysis of p.
func (c *Client) GenerateInsight(ctx context.Context, p models.Pokemon, lang models.Language, format models.Format, model string) (text string, err error) {
	start := time.Now()
	defer c.observe(start, &err)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(lang)},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(p, lang, format)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate insight with %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate insight with %s: %w", model, ErrEmptyResponse)
	}
	text = strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("generate insight with %s: %w", model, ErrEmptyResponse)
	}
	c.logger.Debug("insight generated", "pokemon", p.Name, "model", model, "chars", len(text))
	return text, nil
}

// GenerateSpeech narrates text and returns the encoded audio.
func (c *Client) GenerateSpeech(ctx context.Context, text string) (audio []byte, err error) {
	start := time.Now()
	defer c.observe(start, &err)

	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.speechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(c.voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("generate speech: %w", err)
	}
	defer resp.Close()

	audio, err = io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("generate speech: %w", ErrEmptyResponse)
	}
	return audio, nil
}

func (c *Client) observe(start time.Time, err *error) {
	if c.observer != nil {
		c.observer.ObserveUpstream(providerName, start, *err)
	}
}
