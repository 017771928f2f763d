package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Overrides carries the per-prompt generation settings a template may
// attach to a request. Zero values fall back to the client's defaults.
type Overrides struct {
	Provider    string
	Model       string
	MaxTokens   int
	Temperature float64
}

// Transport sends a prompt (or running history) to the language-model
// backend. Failures are returned to the caller as-is; nothing retries
// automatically.
type Transport interface {
	Send(ctx context.Context, prompt string, history []Message, o Overrides) (string, error)
}

// HTTPTransport talks to an Anthropic-style messages endpoint.
type HTTPTransport struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	HTTP      *http.Client
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	System      string        `json:"system,omitempty"`
	Messages    []wireMessage `json:"messages"`
}

type wireResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewHTTPTransport(apiKey, model, baseURL string, maxTokens int) *HTTPTransport {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &HTTPTransport{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: maxTokens,
		HTTP:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *HTTPTransport) Send(ctx context.Context, prompt string, history []Message, o Overrides) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("api key is required")
	}
	if c.BaseURL == "" {
		return "", errors.New("base url is required")
	}

	model := c.Model
	if o.Model != "" {
		model = o.Model
	}
	maxTokens := c.MaxTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}

	req := wireRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: o.Temperature,
	}
	for _, m := range history {
		if m.Role == RoleSystem {
			// The endpoint takes the system turn out of band. Multiple
			// system messages (original + summary) are concatenated.
			if req.System != "" {
				req.System += "\n\n"
			}
			req.System += m.Content
			continue
		}
		req.Messages = append(req.Messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	if prompt != "" {
		req.Messages = append(req.Messages, wireMessage{Role: string(RoleUser), Content: prompt})
	}
	if len(req.Messages) == 0 {
		return "", errors.New("nothing to send")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.APIKey)
	request.Header.Set("x-api-key", c.APIKey)
	request.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &errResp)
		if errResp.Message != "" {
			return "", fmt.Errorf("llm error: status %d: %s", resp.StatusCode, errResp.Message)
		}
		if errResp.Error != "" {
			return "", fmt.Errorf("llm error: status %d: %s", resp.StatusCode, errResp.Error)
		}
		return "", fmt.Errorf("llm error: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed wireResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse llm response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	for _, content := range parsed.Content {
		if content.Type == "text" && content.Text != "" {
			return content.Text, nil
		}
	}
	return "", fmt.Errorf("llm response had no text content: %s", string(body))
}

// EchoTransport is the offline backend used when no API key is
// configured. It reflects the request so the rest of the tool can be
// exercised end to end.
type EchoTransport struct{}

func (EchoTransport) Send(ctx context.Context, prompt string, history []Message, o Overrides) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if prompt != "" {
		return fmt.Sprintf("(offline) received prompt of %d characters", len(prompt)), nil
	}
	if len(history) == 0 {
		return "", errors.New("nothing to send")
	}
	last := history[len(history)-1]
	return fmt.Sprintf("(offline) received %d messages, last %s turn of %d characters",
		len(history), last.Role, len(last.Content)), nil
}
