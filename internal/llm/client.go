package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config for a llama-server chat client.
type Config struct {
	Endpoint  string        // base URL, e.g. http://localhost:8081
	Timeout   time.Duration // http client timeout; default 120s
	MaxTokens int           // default max_tokens per request; default 4096
}

// Client talks to one llama-server /v1/chat/completions endpoint.
type Client struct {
	cfg    Config
	chat   string
	httpc  *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		chat:   strings.TrimRight(cfg.Endpoint, "/") + "/v1/chat/completions",
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// GenerateText sends one chat completion request and returns the assistant
// message content. Non-2xx responses and malformed bodies surface as errors.
func (c *Client) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.cfg.MaxTokens
	}

	var message map[string]any
	if req.ImagePath != "" {
		dataURL, mimeType, err := ReadAsDataURL(req.ImagePath)
		if err != nil {
			c.logger.Error("llm.chat.image_read_error", "req_id", rid, "path", req.ImagePath, "error", err)
			return "", fmt.Errorf("read image: %w", err)
		}
		c.logger.Debug("llm.chat.image_attached", "req_id", rid, "mime_type", mimeType)
		message = map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": req.Prompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			},
			"cache_prompt": false,
		}
	} else {
		message = map[string]any{"role": "user", "content": req.Prompt}
	}

	payload := map[string]any{
		"messages":    []map[string]any{message},
		"temperature": req.Temperature,
		"max_tokens":  maxTokens,
		"stream":      false,
	}

	bs, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chat, bytes.NewReader(bs))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("llm.chat.request",
		"req_id", rid,
		"url", c.chat,
		"content_length", len(bs),
		"temperature", req.Temperature,
	)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		c.logger.Error("llm.chat.send_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("llm.chat.body_close_error", "req_id", rid, "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Info("llm.chat.response",
		"req_id", rid,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.chat.decode_error", "req_id", rid, "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return cc.Choices[0].Message.Content, nil
}
