// Package roboflow calls the hosted object detection REST API.
package roboflow

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Robogera/pitchtrack/pkg/detection"
)

const DefaultBaseURL = "https://detect.roboflow.com"

var (
	ERR_NO_API_KEY   = errors.New("Can't call the detector without an API key")
	ERR_BAD_RESPONSE = errors.New("Can't use the detector response")
)

type Config struct {
	BaseURL string
	ApiKey  string
	Model   string
	Version int
	// percent, as the hosted API expects
	Confidence int
	Overlap    int
	Timeout    time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "roboflow", "model", cfg.Model),
	}
}

func (c *Client) Enabled() bool { return c.cfg.ApiKey != "" }

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("Base url %q: %w", c.cfg.BaseURL, err)
	}
	u = u.JoinPath(c.cfg.Model, strconv.Itoa(c.cfg.Version))
	q := u.Query()
	q.Set("api_key", c.cfg.ApiKey)
	q.Set("confidence", strconv.Itoa(c.cfg.Confidence))
	q.Set("overlap", strconv.Itoa(c.cfg.Overlap))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Runs inference on an encoded image
func (c *Client) Detect(ctx context.Context, img []byte) (*detection.Response, error) {
	if !c.Enabled() {
		return nil, ERR_NO_API_KEY
	}
	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	body := base64.StdEncoding.EncodeToString(img)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(body))
	if err != nil {
		return nil, fmt.Errorf("Can't build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Detector request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Detector response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Status %d: %s: %w", resp.StatusCode, bytes.TrimSpace(raw), ERR_BAD_RESPONSE)
	}

	var out detection.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("Decode: %w: %w", ERR_BAD_RESPONSE, err)
	}
	c.logger.Debug("Detected", "predictions", len(out.Predictions), "took", time.Since(start))
	return &out, nil
}
