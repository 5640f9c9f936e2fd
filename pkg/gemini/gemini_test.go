package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type wirePart struct {
	Text       string `json:"text"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     []byte `json:"data"`
	} `json:"inlineData"`
}

type wireRequest struct {
	Contents []struct {
		Role  string     `json:"role"`
		Parts []wirePart `json:"parts"`
	} `json:"contents"`
}

func TestAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/"+DefaultModel+":generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "what happens?", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "video/mp4", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, []byte("mp4 bytes"), req.Contents[0].Parts[1].InlineData.Data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"A through "},{"text":"ball."}]}}]}`)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ApiKey: "secret"}, discard())
	text, err := c.Analyze(context.Background(), []byte("mp4 bytes"), "video/mp4", "what happens?")
	require.NoError(t, err)
	assert.Equal(t, "A through ball.", text)
}

func TestAnalyzeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"video too long","status":"INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ApiKey: "secret"}, discard())
	_, err := c.Analyze(context.Background(), nil, "video/mp4", "?")
	require.ErrorIs(t, err, ERR_BAD_RESPONSE)
	assert.Contains(t, err.Error(), "video too long")
}

func TestAnalyzeEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, ApiKey: "secret"}, discard())
	_, err := c.Analyze(context.Background(), nil, "video/mp4", "?")
	assert.ErrorIs(t, err, ERR_EMPTY)
}

func TestPrompt(t *testing.T) {
	p := Prompt("Who passes?", 12.5, json.RawMessage(`{"x":10,"y":20}`))
	assert.Equal(t, "Who passes?\nTime: 12.5 s\nPlayer coordinates: {\"x\":10,\"y\":20}", p)
}

func TestAnalyzeWithoutKey(t *testing.T) {
	c := NewClient(Config{}, discard())
	_, err := c.Analyze(context.Background(), nil, "video/mp4", "?")
	assert.ErrorIs(t, err, ERR_NO_API_KEY)
}
