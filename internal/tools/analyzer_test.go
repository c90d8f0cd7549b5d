package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scout/internal/llm"
)

type llmStub struct {
	content string
	err     error
	prompt  string
}

func (s *llmStub) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	s.prompt = req.Prompt
	if s.err != nil {
		return llm.Response{}, s.err
	}
	return llm.Response{Content: s.content}, nil
}

func (s *llmStub) GenerateStructured(context.Context, string, map[string]any, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (s *llmStub) AnalyzeText(context.Context, string, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (s *llmStub) HealthCheck(context.Context) bool { return true }

func TestAnalyzerUsesModelWhenAvailable(t *testing.T) {
	stub := &llmStub{content: "A concise summary."}
	tool := NewTextAnalyzerTool(stub, quietLogger())

	out := tool.Run(context.Background(), "The quick brown fox jumps over the lazy dog repeatedly.")
	if out != "A concise summary." {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(stub.prompt, "concise summary") {
		t.Fatalf("expected summarize prompt, got %q", stub.prompt)
	}
}

func TestAnalyzerJSONInputSelectsAnalysisType(t *testing.T) {
	stub := &llmStub{content: "Sentiment: Positive"}
	tool := NewTextAnalyzerTool(stub, quietLogger())

	tool.Run(context.Background(), `{"text":"This library is excellent and very helpful.","analysis_type":"sentiment"}`)
	if !strings.Contains(stub.prompt, "sentiment") {
		t.Fatalf("expected sentiment prompt, got %q", stub.prompt)
	}
}

func TestAnalyzerFallsBackToRulesOnModelError(t *testing.T) {
	stub := &llmStub{err: errors.New("provider down")}
	tool := NewTextAnalyzerTool(stub, quietLogger())

	out := tool.Run(context.Background(), `{"text":"This tool is excellent and helpful. I love the useful output.","analysis_type":"sentiment"}`)
	if !strings.HasPrefix(out, "Sentiment: Positive") {
		t.Fatalf("expected rule-based positive sentiment, got %q", out)
	}
}

func TestAnalyzerRejectsShortText(t *testing.T) {
	tool := NewTextAnalyzerTool(nil, quietLogger())

	out := tool.Run(context.Background(), "short")
	if out != "Error: Text is too short to analyze." {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestRuleBasedKeyPoints(t *testing.T) {
	text := "The design has flaws. The most important change is caching. Deployment should use containers. Nothing else matters here."

	out := ruleBasedAnalysis(text, "key_points")
	if !strings.HasPrefix(out, "Key Points:") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "important change is caching") {
		t.Fatalf("expected indicator sentence, got %q", out)
	}
	if !strings.Contains(out, "should use containers") {
		t.Fatalf("expected should sentence, got %q", out)
	}
	if strings.Contains(out, "Nothing else matters") {
		t.Fatalf("unexpected sentence without indicator: %q", out)
	}
}

func TestRuleBasedTechnicalTerms(t *testing.T) {
	out := ruleBasedAnalysis("The service exposes a REST API and returns JSON over HTTP using TLS.", "technical_terms")
	for _, term := range []string{"API", "JSON", "HTTP", "REST", "TLS"} {
		if !strings.Contains(out, term) {
			t.Fatalf("expected %s in %q", term, out)
		}
	}
}

func TestRuleBasedProsCons(t *testing.T) {
	text := "The main advantage is simplicity. A known drawback is the memory usage."

	out := ruleBasedAnalysis(text, "pros_cons")
	if !strings.Contains(out, "Pros:\n+ The main advantage is simplicity") {
		t.Fatalf("missing pros section: %q", out)
	}
	if !strings.Contains(out, "Cons:\n- A known drawback is the memory usage") {
		t.Fatalf("missing cons section: %q", out)
	}
}

func TestRuleBasedSummarizeShortTextPassthrough(t *testing.T) {
	text := "One sentence. Two sentence. Three sentence."
	if out := ruleBasedAnalysis(text, "summarize"); out != text {
		t.Fatalf("expected passthrough for short text, got %q", out)
	}
}
