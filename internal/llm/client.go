// Package llm wraps the language-model providers behind one interface:
// plain generation, JSON-structured generation, canned text analysis, and a
// health probe. Provider failures carry a typed Kind so the failover layer
// can distinguish rate limits from connectivity problems.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Request struct {
	Prompt       string
	SystemPrompt string
	// Temperature <= 0 and MaxTokens <= 0 fall back to the client defaults.
	Temperature float64
	MaxTokens   int
}

type Response struct {
	Content      string
	Model        string
	TokensUsed   int
	FinishReason string
	Metadata     map[string]string
}

type Client interface {
	Generate(ctx context.Context, req Request) (Response, error)
	GenerateStructured(ctx context.Context, prompt string, schema map[string]any, systemPrompt string) (map[string]any, error)
	AnalyzeText(ctx context.Context, text, kind string) (map[string]any, error)
	HealthCheck(ctx context.Context) bool
}

const structuredTemperature = 0.3

var analysisTemplates = map[string]string{
	"summary":   "Summarize the following text in 2-3 sentences:",
	"keywords":  "Extract 5-10 key terms from the following text:",
	"sentiment": "Analyze the sentiment (positive/negative/neutral) of:",
	"entities":  "Extract named entities (people, places, organizations) from:",
}

// generateStructured implements the shared structured-generation contract on
// top of a provider's Generate: instruct JSON-only output, strip a fenced
// code block wrapper if present, and parse. Parse failure is an
// InvalidResponse error, never partial data.
func generateStructured(ctx context.Context, provider string, client Client, prompt string, schema map[string]any, systemPrompt string) (map[string]any, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Message: "marshal output schema", Err: err}
	}

	fullSystemPrompt := strings.TrimSpace(fmt.Sprintf(
		"%s\n\nYou must respond with valid JSON matching this schema:\n%s\n\nRespond ONLY with the JSON object, no additional text.",
		systemPrompt, schemaJSON,
	))

	resp, err := client.Generate(ctx, Request{
		Prompt:       prompt,
		SystemPrompt: fullSystemPrompt,
		Temperature:  structuredTemperature,
	})
	if err != nil {
		return nil, err
	}

	content := stripCodeFence(resp.Content)

	var parsed map[string]any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Provider: provider, Message: "parse JSON response", Err: err}
	}
	return parsed, nil
}

func analyzeText(ctx context.Context, client Client, text, kind string) (map[string]any, error) {
	template, ok := analysisTemplates[kind]
	if !ok {
		template = "Analyze the following text:"
	}

	schema := map[string]any{
		"analysis_type": kind,
		"result":        "string or array depending on analysis type",
		"confidence":    "float between 0 and 1",
	}
	return client.GenerateStructured(ctx, fmt.Sprintf("%s\n\n%s", template, text), schema, "")
}

// healthCheck issues a minimal generation and reports success without ever
// propagating an error.
func healthCheck(ctx context.Context, client Client) bool {
	resp, err := client.Generate(ctx, Request{
		Prompt:    "Say 'OK' if you're working.",
		MaxTokens: 10,
	})
	return err == nil && strings.TrimSpace(resp.Content) != ""
}

func stripCodeFence(raw string) string {
	content := strings.TrimSpace(raw)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
