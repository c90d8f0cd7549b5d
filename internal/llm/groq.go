package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scout/internal/config"
)

const groqProvider = "groq"

var ErrMissingGroqAPIKey = errors.New("groq api key is not configured")

// GroqClient talks to the Groq OpenAI-compatible chat completions API.
// Retry is left to the failover layer; Groq acts as the fallback provider.
type GroqClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqAPIRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type groqAPIResponse struct {
	Choices []struct {
		Message      groqMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func NewGroqClient(cfg config.Config, httpClient *http.Client) *GroqClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GroqClient{
		apiKey:      strings.TrimSpace(cfg.GroqAPIKey),
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.GroqBaseURL), "/"),
		model:       cfg.GroqModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  httpClient,
	}
}

func (c *GroqClient) Generate(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, ErrMissingGroqAPIKey
	}

	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	messages := make([]groqMessage, 0, 2)
	if strings.TrimSpace(req.SystemPrompt) != "" {
		messages = append(messages, groqMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Prompt})

	payload, err := json.Marshal(groqAPIRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal groq request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build groq request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, classifyFailure(groqProvider, "request groq", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return Response{}, classifyStatus(groqProvider, resp.StatusCode, string(body))
	}

	var parsed groqAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Response{}, &Error{Kind: KindInvalidResponse, Provider: groqProvider, Message: "decode groq response", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return Response{}, &Error{Kind: KindInvalidResponse, Provider: groqProvider, Message: "groq returned no choices"}
	}

	choice := parsed.Choices[0]
	return Response{
		Content:      choice.Message.Content,
		Model:        c.model,
		TokensUsed:   parsed.Usage.TotalTokens,
		FinishReason: choice.FinishReason,
		Metadata:     map[string]string{"provider": groqProvider},
	}, nil
}

func (c *GroqClient) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, systemPrompt string) (map[string]any, error) {
	return generateStructured(ctx, groqProvider, c, prompt, schema, systemPrompt)
}

func (c *GroqClient) AnalyzeText(ctx context.Context, text, kind string) (map[string]any, error) {
	return analyzeText(ctx, c, text, kind)
}

func (c *GroqClient) HealthCheck(ctx context.Context) bool {
	return healthCheck(ctx, c)
}
