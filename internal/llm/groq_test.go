package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"scout/internal/config"
)

func newTestGroqClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGroqClient(config.Config{
		GroqAPIKey:  "groq-key",
		GroqBaseURL: server.URL,
		GroqModel:   "llama-3.3-70b-versatile",
		Temperature: 0.7,
		MaxTokens:   2000,
	}, server.Client())
}

func TestGroqGenerateReturnsContent(t *testing.T) {
	var receivedAuth string
	var receivedReq groqAPIRequest
	client := newTestGroqClient(t, func(w http.ResponseWriter, r *http.Request) {
		receivedAuth = r.Header.Get("Authorization")
		decodeRequestBody(t, r, &receivedReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "choices": [{"message": {"role": "assistant", "content": "hello from groq"}, "finish_reason": "stop"}],
		  "usage": {"total_tokens": 17}
		}`))
	})

	resp, err := client.Generate(context.Background(), Request{
		Prompt:       "hi",
		SystemPrompt: "be brief",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if receivedAuth != "Bearer groq-key" {
		t.Fatalf("unexpected auth header: %q", receivedAuth)
	}
	if len(receivedReq.Messages) != 2 || receivedReq.Messages[0].Role != "system" {
		t.Fatalf("expected system+user messages, got %+v", receivedReq.Messages)
	}
	if resp.Content != "hello from groq" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Fatalf("unexpected finish reason: %q", resp.FinishReason)
	}
}

func TestGroqClassifiesRateLimit(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limit reached"}}`))
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limited error, got %v", err)
	}
}

func TestGroqClassifiesServerErrorAsConnectionFailure(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`upstream unavailable`))
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	if !IsConnectionFailed(err) {
		t.Fatalf("expected connection-failed error, got %v", err)
	}
}

func TestGroqRequiresAPIKey(t *testing.T) {
	client := NewGroqClient(config.Config{GroqBaseURL: "http://unused"}, nil)

	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	if err != ErrMissingGroqAPIKey {
		t.Fatalf("expected ErrMissingGroqAPIKey, got %v", err)
	}
}

func TestGroqRejectsEmptyChoices(t *testing.T) {
	client := newTestGroqClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Generate(context.Background(), Request{Prompt: "hi"})
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.Kind != KindInvalidResponse {
		t.Fatalf("expected invalid-response error, got %v", err)
	}
}
