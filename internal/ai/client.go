package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/DjordjeVuckovic/news-pulse/internal/ratelimit"
)

const defaultTimeout = 120 * time.Second

type OpenAIConfig func(client *OpenAIClient)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
type OpenAIClient struct {
	base    url.URL
	apiKey  string
	models  map[Tier]string
	http    *http.Client
	limiter *ratelimit.Limiter
	rpm     int
	maxWait time.Duration
}

func NewOpenAIClient(baseUrl, apiKey string, models map[Tier]string, opts ...OpenAIConfig) (*OpenAIClient, error) {
	base, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}

	client := &OpenAIClient{
		base:   *base,
		apiKey: apiKey,
		models: models,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, cfg := range opts {
		cfg(client)
	}

	return client, nil
}

func WithHttpClient(httpClient *http.Client) OpenAIConfig {
	return func(client *OpenAIClient) {
		client.http = httpClient
	}
}

// WithRateLimit shares the rolling-window limiter with every other caller
// of the same provider. The bucket is keyed per model tier.
func WithRateLimit(limiter *ratelimit.Limiter, rpm int, maxWait time.Duration) OpenAIConfig {
	return func(client *OpenAIClient) {
		client.limiter = limiter
		client.rpm = rpm
		client.maxWait = maxWait
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, tier Tier, system, user string) (string, error) {
	model, ok := c.models[tier]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %q", tier)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "chat:"+string(tier), c.rpm, c.maxWait); err != nil {
			return "", fmt.Errorf("rate limit for tier %s: %w", tier, err)
		}
	}

	req := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) do(ctx context.Context, method, path string, reqData, respData any) error {
	reqDataBytes, err := json.Marshal(reqData)
	if err != nil {
		return err
	}

	reqURL := c.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, method, reqURL.String(), bytes.NewReader(reqDataBytes))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, respData); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}
