package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/moodshelf/recs-gateway/internal/config"
)

// ErrAllProvidersFailed is returned when both the primary and fallback
// language model providers failed for one prompt.
var ErrAllProvidersFailed = errors.New("all AI providers failed")

// Client drives the language model with provider rotation: Gemini first,
// Groq as fallback. Every call is bounded by the configured timeout.
type Client struct {
	cfg    config.AIConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds the client.
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

// Complete sends a prompt and returns the raw model text. The prompt is
// suffixed with a JSON-only instruction; callers still run CleanJSON before
// parsing since models wrap output in markdown fences anyway.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	prompt += "\nReturn ONLY valid minified JSON."

	if c.cfg.GeminiKey != "" {
		text, err := c.completeGemini(ctx, prompt)
		if err == nil {
			return text, nil
		}
		c.logger.Warn("gemini failed, falling back to groq", zap.Error(err))
	}

	if c.cfg.GroqKey != "" {
		text, err := c.completeGroq(ctx, prompt)
		if err == nil {
			return text, nil
		}
		c.logger.Error("groq fallback failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, err)
	}

	return "", ErrAllProvidersFailed
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeGemini(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
		},
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.cfg.GeminiBaseURL, c.cfg.GeminiModel, c.cfg.GeminiKey)

	var parsed geminiResponse
	if err := c.postJSON(ctx, url, nil, body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini API error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		reason := "unknown"
		if len(parsed.Candidates) > 0 && parsed.Candidates[0].FinishReason != "" {
			reason = parsed.Candidates[0].FinishReason
		}
		return "", fmt.Errorf("gemini returned no text (reason: %s)", reason)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) completeGroq(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":           c.cfg.GroqModel,
		"messages":        []map[string]string{{"role": "user", "content": prompt}},
		"response_format": map[string]string{"type": "json_object"},
	}

	headers := map[string]string{"Authorization": "Bearer " + c.cfg.GroqKey}

	var parsed groqResponse
	if err := c.postJSON(ctx, c.cfg.GroqBaseURL+"/openai/v1/chat/completions", headers, body, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("groq returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CleanJSON strips markdown fences and control characters that break
// json.Unmarshal on model output.
func CleanJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(text)
}
