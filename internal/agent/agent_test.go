package agent

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"scout/internal/llm"
	"scout/internal/tools"
)

type scriptedClient struct {
	responses []string
	calls     int
	prompts   []string
}

func (c *scriptedClient) Generate(_ context.Context, req llm.Request) (llm.Response, error) {
	c.prompts = append(c.prompts, req.Prompt)
	if c.calls >= len(c.responses) {
		return llm.Response{}, errors.New("script exhausted")
	}
	content := c.responses[c.calls]
	c.calls++
	return llm.Response{Content: content}, nil
}

func (c *scriptedClient) GenerateStructured(context.Context, string, map[string]any, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (c *scriptedClient) AnalyzeText(context.Context, string, string) (map[string]any, error) {
	return nil, errors.New("not implemented")
}

func (c *scriptedClient) HealthCheck(context.Context) bool { return true }

type echoTool struct {
	name   string
	inputs []string
	output string
}

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "test tool" }

func (t *echoTool) Run(_ context.Context, input string) string {
	t.inputs = append(t.inputs, input)
	return t.output
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunStopsAtFinalAnswer(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Thought: I know this already.\nFinal Answer: Go has goroutines.",
	}}
	executor := NewExecutor(client, tools.NewRegistry(), quietLogger(), 5)

	outcome, err := executor.Run(context.Background(), "What does Go have?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Output != "Go has goroutines." {
		t.Fatalf("unexpected output: %q", outcome.Output)
	}
	if len(outcome.Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(outcome.Steps))
	}
}

func TestRunInvokesToolAndRecordsStep(t *testing.T) {
	search := &echoTool{name: "web_search", output: "Result 1:\nTitle: T\nURL: https://example.com\nSnippet: S"}
	client := &scriptedClient{responses: []string{
		"Thought: I should search.\nAction: web_search\nAction Input: go concurrency",
		"Thought: Enough information.\nFinal Answer: Go uses goroutines and channels.",
	}}
	executor := NewExecutor(client, tools.NewRegistry(search), quietLogger(), 5)

	outcome, err := executor.Run(context.Background(), "How does Go handle concurrency?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Steps) != 1 {
		t.Fatalf("expected one step, got %d", len(outcome.Steps))
	}
	if outcome.Steps[0].ActionName != "web_search" {
		t.Fatalf("unexpected action name: %q", outcome.Steps[0].ActionName)
	}
	if !strings.Contains(outcome.Steps[0].Observation, "https://example.com") {
		t.Fatalf("unexpected observation: %q", outcome.Steps[0].Observation)
	}
	if len(search.inputs) != 1 || search.inputs[0] != "go concurrency" {
		t.Fatalf("unexpected tool inputs: %v", search.inputs)
	}
	if !strings.Contains(client.prompts[1], "Observation: Result 1:") {
		t.Fatalf("expected observation in scratchpad, got:\n%s", client.prompts[1])
	}
}

func TestRunUnknownToolFeedsErrorObservation(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Action: no_such_tool\nAction Input: whatever",
		"Final Answer: done anyway",
	}}
	executor := NewExecutor(client, tools.NewRegistry(), quietLogger(), 5)

	outcome, err := executor.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Steps) != 1 || !strings.HasPrefix(outcome.Steps[0].Observation, "Error: unknown tool") {
		t.Fatalf("unexpected steps: %+v", outcome.Steps)
	}
	if outcome.Output != "done anyway" {
		t.Fatalf("unexpected output: %q", outcome.Output)
	}
}

func TestRunMalformedOutputContinues(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"I will just ramble without any structure.",
		"Final Answer: recovered",
	}}
	executor := NewExecutor(client, tools.NewRegistry(), quietLogger(), 5)

	outcome, err := executor.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.Output != "recovered" {
		t.Fatalf("unexpected output: %q", outcome.Output)
	}
	if !strings.Contains(client.prompts[1], "Invalid format") {
		t.Fatalf("expected format hint in scratchpad:\n%s", client.prompts[1])
	}
}

func TestRunExhaustsIterations(t *testing.T) {
	search := &echoTool{name: "web_search", output: "nothing useful"}
	client := &scriptedClient{responses: []string{
		"Action: web_search\nAction Input: a",
		"Action: web_search\nAction Input: b",
	}}
	executor := NewExecutor(client, tools.NewRegistry(search), quietLogger(), 2)

	outcome, err := executor.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcome.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(outcome.Steps))
	}
	if outcome.Output == "" {
		t.Fatal("expected best-effort output after exhaustion")
	}
}

func TestRunPropagatesModelError(t *testing.T) {
	client := &scriptedClient{}
	executor := NewExecutor(client, tools.NewRegistry(), quietLogger(), 3)

	if _, err := executor.Run(context.Background(), "q"); err == nil {
		t.Fatal("expected error when model fails")
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor(&scriptedClient{}, tools.NewRegistry(), quietLogger(), 3)
	if _, err := executor.Run(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
