package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"scout/internal/config"
)

const (
	geminiProvider    = "gemini"
	maxErrorBodyBytes = 8 * 1024

	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 60 * time.Second
)

var ErrMissingGeminiAPIKey = errors.New("gemini api key is not configured")

// GeminiClient talks to the Gemini generateContent REST API. Every call is
// wrapped in bounded retry with exponential backoff and jitter; only
// rate-limit failures are retried.
type GeminiClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	maxRetries     int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

type geminiAPIRequest struct {
	SystemInstruction *geminiContent       `json:"system_instruction,omitempty"`
	Contents          []geminiContent      `json:"contents"`
	GenerationConfig  geminiGenerationConf `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConf struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiAPIResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func NewGeminiClient(cfg config.Config, httpClient *http.Client) *GeminiClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiClient{
		apiKey:         strings.TrimSpace(cfg.GoogleAPIKey),
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/"),
		model:          cfg.GeminiModel,
		temperature:    cfg.Temperature,
		maxTokens:      cfg.MaxTokens,
		httpClient:     httpClient,
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		retryMaxDelay:  defaultRetryMaxDelay,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, ErrMissingGeminiAPIKey
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.generateOnce(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !IsRateLimited(err) {
			return Response{}, err
		}
		lastErr = err
		if attempt == c.maxRetries {
			break
		}
		if waitErr := c.backoff(ctx, attempt); waitErr != nil {
			return Response{}, waitErr
		}
	}

	return Response{}, &Error{
		Kind:     KindRateLimited,
		Provider: geminiProvider,
		Message:  fmt.Sprintf("rate limit exceeded after %d attempts", c.maxRetries+1),
		Err:      lastErr,
	}
}

func (c *GeminiClient) generateOnce(ctx context.Context, req Request) (Response, error) {
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = c.temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	apiReq := geminiAPIRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.Prompt}},
		}},
		GenerationConfig: geminiGenerationConf{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		apiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	payload, err := json.Marshal(apiReq)
	if err != nil {
		return Response{}, fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, classifyFailure(geminiProvider, "request gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return Response{}, classifyStatus(geminiProvider, resp.StatusCode, string(body))
	}

	var parsed geminiAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Response{}, &Error{Kind: KindInvalidResponse, Provider: geminiProvider, Message: "decode gemini response", Err: err}
	}
	if len(parsed.Candidates) == 0 {
		return Response{}, &Error{Kind: KindInvalidResponse, Provider: geminiProvider, Message: "gemini returned no candidates"}
	}

	candidate := parsed.Candidates[0]
	var content strings.Builder
	for _, part := range candidate.Content.Parts {
		content.WriteString(part.Text)
	}

	finishReason := candidate.FinishReason
	if finishReason == "" {
		finishReason = "STOP"
	}

	return Response{
		Content:      content.String(),
		Model:        c.model,
		TokensUsed:   parsed.UsageMetadata.TotalTokenCount,
		FinishReason: finishReason,
		Metadata:     map[string]string{"provider": geminiProvider},
	}, nil
}

func (c *GeminiClient) backoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(c.retryBaseDelay)*math.Pow(2, float64(attempt))) +
		time.Duration(rand.Float64()*float64(time.Second))
	if delay > c.retryMaxDelay {
		delay = c.retryMaxDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *GeminiClient) GenerateStructured(ctx context.Context, prompt string, schema map[string]any, systemPrompt string) (map[string]any, error) {
	return generateStructured(ctx, geminiProvider, c, prompt, schema, systemPrompt)
}

func (c *GeminiClient) AnalyzeText(ctx context.Context, text, kind string) (map[string]any, error) {
	return analyzeText(ctx, c, text, kind)
}

func (c *GeminiClient) HealthCheck(ctx context.Context) bool {
	return healthCheck(ctx, c)
}
