// Package gemini asks a multimodal model for a free-text analysis of a
// video clip.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/"
	DefaultAPIVersion = "v1beta"
	DefaultModel      = "gemini-1.5-flash"
)

var (
	ERR_NO_API_KEY   = errors.New("Can't call the narrator without an API key")
	ERR_BAD_RESPONSE = errors.New("Can't use the narrator response")
	ERR_EMPTY        = errors.New("Narrator returned no text")
)

type Config struct {
	BaseURL string
	ApiKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	cfg    Config
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{
		cfg:    cfg,
		logger: logger.With("component", "gemini", "model", cfg.Model),
	}
}

func (c *Client) Enabled() bool { return c.cfg.ApiKey != "" }

func (c *Client) connect(ctx context.Context) (*genai.Client, error) {
	opts := genai.HTTPOptions{BaseURL: c.cfg.BaseURL, APIVersion: DefaultAPIVersion}
	if c.cfg.Timeout > 0 {
		opts.Timeout = &c.cfg.Timeout
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.cfg.ApiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: opts,
	})
}

// Composes the user turn sent along with the clip
func Prompt(prompt string, time_in_seconds float64, coordinates json.RawMessage) string {
	return fmt.Sprintf("%s\nTime: %g s\nPlayer coordinates: %s", prompt, time_in_seconds, coordinates)
}

// Sends the video inline with the text and returns the model's answer
func (c *Client) Analyze(ctx context.Context, video []byte, mime, text string) (string, error) {
	if !c.Enabled() {
		return "", ERR_NO_API_KEY
	}
	client, err := c.connect(ctx)
	if err != nil {
		return "", fmt.Errorf("Can't create narrator client: %w", err)
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(text),
		genai.NewPartFromBytes(video, mime),
	}, genai.RoleUser)}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, contents, nil)
	if err != nil {
		var api_err genai.APIError
		if errors.As(err, &api_err) {
			return "", fmt.Errorf("Status %d: %s: %w", api_err.Code, api_err.Message, ERR_BAD_RESPONSE)
		}
		return "", fmt.Errorf("Narrator request: %w", err)
	}

	// first candidate is the answer
	answer := resp.Text()
	if answer == "" {
		return "", ERR_EMPTY
	}
	c.logger.Debug("Analyzed", "bytes", len(video), "took", time.Since(start))
	return answer, nil
}
