// Package openrouter talks to the OpenRouter HTTP API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edulearn/internal/model"
)

const (
	DefaultBaseURL       = "https://openrouter.ai/api/v1"
	DefaultFallbackModel = "meta-llama/llama-3.2-3b-instruct:free"
	DefaultRetryAfter    = 60
)

// ErrBodyTooLarge 表示上游回應超過 maxBodyBytes，不會截斷後回傳
var ErrBodyTooLarge = errors.New("provider response too large")

// 測試時可調小
var maxBodyBytes int64 = 10 << 20

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body forwarded to /chat/completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// Response is a provider answer kept verbatim.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Client struct {
	baseURL  string
	appURL   string
	appTitle string
	http     *http.Client
}

// New builds a client. Empty baseURL means DefaultBaseURL; nil hc gets a 60s
// timeout client.
func New(baseURL, appURL, appTitle string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		appURL:   appURL,
		appTitle: appTitle,
		http:     hc,
	}
}

func (c *Client) do(ctx context.Context, method, path, key string, body any) (*Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.appURL != "" {
		req.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBodyBytes {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrBodyTooLarge)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Chat forwards one completion request. Only transport failures are returned
// as errors; provider error statuses come back in the Response.
func (c *Client) Chat(ctx context.Context, key string, req ChatRequest) (*Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/chat/completions", key, req)
	if err != nil {
		return nil, fmt.Errorf("openrouter chat: %w", err)
	}
	return resp, nil
}

// Probe issues a GET against path with key and returns the status code.
func (c *Client) Probe(ctx context.Context, key, path string) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, path, key, nil)
	if err != nil {
		return 0, fmt.Errorf("openrouter probe %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

type modelsPayload struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		ContextLength int    `json:"context_length"`
		Pricing       struct {
			Prompt     string `json:"prompt"`
			Completion string `json:"completion"`
		} `json:"pricing"`
	} `json:"data"`
}

// ListModels fetches the provider catalog.
func (c *Client) ListModels(ctx context.Context, key string) ([]model.ProviderModel, error) {
	resp, err := c.do(ctx, http.MethodGet, "/models", key, nil)
	if err != nil {
		return nil, fmt.Errorf("openrouter models: %w", err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("openrouter models: unexpected status %d", resp.StatusCode)
	}
	var p modelsPayload
	if err := json.Unmarshal(resp.Body, &p); err != nil {
		return nil, fmt.Errorf("openrouter models: %w", err)
	}
	models := make([]model.ProviderModel, 0, len(p.Data))
	for _, d := range p.Data {
		if d.ID == "" {
			continue
		}
		name := d.Name
		if name == "" {
			name = d.ID
		}
		models = append(models, model.ProviderModel{
			ID:              d.ID,
			Name:            name,
			Description:     d.Description,
			ContextLength:   d.ContextLength,
			PromptPrice:     d.Pricing.Prompt,
			CompletionPrice: d.Pricing.Completion,
			IsFree:          isFree(d.ID, d.Pricing.Prompt, d.Pricing.Completion),
		})
	}
	return models, nil
}

func isFree(id, prompt, completion string) bool {
	if strings.HasSuffix(id, ":free") {
		return true
	}
	return zeroPrice(prompt) && zeroPrice(completion)
}

func zeroPrice(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f == 0
}

// TotalTokens extracts usage.total_tokens from a completion body; 0 when absent.
func TotalTokens(body []byte) int {
	var p struct {
		Usage *struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(body, &p); err != nil || p.Usage == nil {
		return 0
	}
	return p.Usage.TotalTokens
}

// ModelID returns the model the provider reports having served.
func ModelID(body []byte) string {
	var p struct {
		Model string `json:"model"`
	}
	_ = json.Unmarshal(body, &p)
	return p.Model
}

// IsModelNotFound reports whether an error body says the requested model is
// unknown or has no available endpoints.
func IsModelNotFound(body []byte) bool {
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "model not found") ||
		strings.Contains(msg, "no endpoints found") ||
		strings.Contains(msg, "not a valid model id")
}

// RetryAfter reads the Retry-After header in seconds, defaulting to 60.
func RetryAfter(h http.Header) int {
	if v, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After"))); err == nil && v > 0 {
		return v
	}
	return DefaultRetryAfter
}
