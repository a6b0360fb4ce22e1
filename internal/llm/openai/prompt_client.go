package openai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cv-builder/internal/llm"
	"cv-builder/internal/shared/metrics"
	"cv-builder/internal/shared/telemetry"
)

// Providers speaking the OpenAI chat completions protocol.
const (
	ProviderOpenAI     = "openai"
	ProviderGroq       = "groq"
	ProviderGemini     = "gemini"
	ProviderCompatible = "openai-compatible"
)

const defaultTemperature = float32(0.3)

var baseURLs = map[string]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderGroq:       "https://api.groq.com/openai/v1",
	ProviderGemini:     "https://generativelanguage.googleapis.com/v1beta/openai",
	ProviderCompatible: "http://127.0.0.1:1234/v1",
}

var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderGroq:       "llama-3.1-70b-versatile",
	ProviderGemini:     "gemini-1.5-flash",
	ProviderCompatible: "openai/gpt-oss-20b",
}

// Options configure a PromptClient. Empty BaseURL and Model fall back to the
// provider defaults.
type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// PromptClient implements llm.Client against a chat completions endpoint.
type PromptClient struct {
	provider   string
	apiKey     string
	model      string
	url        string
	jsonMode   bool
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
		Text    string      `json:"text"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewPromptClient validates opts and builds a client.
func NewPromptClient(opts Options) (*PromptClient, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	base, ok := baseURLs[provider]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider %q", opts.Provider)
	}
	if custom := strings.TrimSpace(opts.BaseURL); custom != "" {
		base = custom
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" && provider != ProviderCompatible {
		return nil, fmt.Errorf("LLM_API_KEY is required for provider %s", provider)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModels[provider]
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &PromptClient{
		provider:   provider,
		apiKey:     apiKey,
		model:      model,
		url:        strings.TrimRight(base, "/") + "/chat/completions",
		jsonMode:   provider == ProviderOpenAI || provider == ProviderGroq,
		httpClient: httpClient,
	}, nil
}

// Model returns the resolved model name.
func (c *PromptClient) Model() string { return c.model }

// Complete sends one prompt and returns the raw content of the first choice.
// Every failure wraps llm.ErrProviderUnavailable.
func (c *PromptClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	start := time.Now()
	content, err := c.complete(ctx, req)
	metrics.ObserveLLMCall(string(req.Purpose), err, time.Since(start))
	if err != nil {
		telemetry.Error("llm.request_failed", map[string]any{
			"provider":    c.provider,
			"model":       c.model,
			"purpose":     string(req.Purpose),
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err.Error(),
		})
		return "", fmt.Errorf("%w: %v", llm.ErrProviderUnavailable, err)
	}
	return content, nil
}

func (c *PromptClient) complete(ctx context.Context, req llm.Request) (string, error) {
	system := req.System
	if strings.TrimSpace(system) == "" {
		system = llm.SystemMessage
	}
	messages := []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: req.Prompt},
	}
	hash := hashPrompt(messages)
	if sink, ok := llm.PromptHashSinkFromContext(ctx); ok && sink != nil {
		*sink = hash
	}

	withTemperature := !isGPT5(c.model)
	content, err := c.send(ctx, req.Purpose, hash, messages, withTemperature)
	if err != nil && withTemperature && isTemperatureUnsupported(err) {
		content, err = c.send(ctx, req.Purpose, hash, messages, false)
	}
	return content, err
}

func (c *PromptClient) send(ctx context.Context, purpose llm.Purpose, hash string, messages []chatMessage, withTemperature bool) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
	}
	if withTemperature {
		temp := defaultTemperature
		reqBody.Temperature = &temp
	}
	if c.jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("%s request timeout: %w", c.provider, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("%s http status %d", c.provider, resp.StatusCode)
		}
		return "", fmt.Errorf("%s response parse: %w", c.provider, err)
	}
	if parsed.Error != nil {
		return "", &apiError{status: resp.StatusCode, message: parsed.Error.Message, kind: parsed.Error.Type}
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("%s http status %d", c.provider, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s response missing choices", c.provider)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		content = strings.TrimSpace(parsed.Choices[0].Text)
	}
	if content == "" {
		return "", fmt.Errorf("%s response empty content", c.provider)
	}

	fields := map[string]any{
		"provider":    c.provider,
		"model":       c.model,
		"purpose":     string(purpose),
		"prompt_hash": hash,
	}
	if parsed.Usage != nil {
		fields["prompt_tokens"] = parsed.Usage.PromptTokens
		fields["completion_tokens"] = parsed.Usage.CompletionTokens
		fields["total_tokens"] = parsed.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
	return content, nil
}

type apiError struct {
	status  int
	message string
	kind    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("provider error status %d: %s (%s)", e.status, e.message, e.kind)
}

func isTemperatureUnsupported(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.message)
	return strings.Contains(msg, "temperature") && (strings.Contains(msg, "unsupported") || strings.Contains(msg, "does not support"))
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

func hashPrompt(messages []chatMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

var _ llm.Client = (*PromptClient)(nil)
