package research

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type executorStub struct {
	outcome Outcome
	err     error
	input   string
}

func (s *executorStub) Run(_ context.Context, input string) (Outcome, error) {
	s.input = input
	return s.outcome, s.err
}

type memoryStub struct {
	relevant    string
	relevantErr error
	appendErr   error

	appendedQuery    string
	appendedResponse string
	appendedMetadata map[string]string
}

func (s *memoryStub) RelevantContext(context.Context, string, int) (string, error) {
	return s.relevant, s.relevantErr
}

func (s *memoryStub) Append(_ context.Context, query, response string, metadata map[string]string) error {
	s.appendedQuery = query
	s.appendedResponse = response
	s.appendedMetadata = metadata
	return s.appendErr
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testQuery(t *testing.T) Query {
	t.Helper()
	query, err := NewQuery("What are the best practices for FastAPI in production?",
		"Focus on performance and security", QueryTypeTechnical, PriorityHigh, 8, []string{"fastapi", "deployment"})
	if err != nil {
		t.Fatalf("new query: %v", err)
	}
	return query
}

func TestResearchEndToEnd(t *testing.T) {
	observation := "Result 1:\n" +
		"Title: Production Deployment Checklist\n" +
		"URL: https://www.cisa.gov/deployment-checklist\n" +
		"Snippet: Official hardening guidance for public services.\n" +
		"\n" +
		"Result 2:\n" +
		"Title: Hot Takes Thread\n" +
		"URL: https://www.facebook.com/groups/hot-takes\n" +
		"Snippet: Opinions about frameworks.\n"
	finalAnswer := "Based on my research:\n" +
		"- Run multiple workers behind a process manager\n" +
		"- Pin dependency versions and scan them regularly\n" +
		"- Terminate TLS at a reverse proxy in front of the app\n"

	executor := &executorStub{outcome: Outcome{
		Output: finalAnswer,
		Steps:  []TraceStep{{ActionName: "web_search", Observation: observation}},
	}}
	memory := &memoryStub{}
	orchestrator := NewOrchestrator(executor, memory, quietLogger())
	query := testQuery(t)

	result := orchestrator.Research(context.Background(), query)

	if result.Status != StatusCompleted {
		t.Fatalf("expected completed result, got %q with findings %v", result.Status, result.Findings)
	}
	if result.SourceCount() != 1 {
		t.Fatalf("expected 1 source after filtering, got %d: %+v", result.SourceCount(), result.Sources)
	}
	if result.Sources[0].Credibility != CredibilityHigh {
		t.Fatalf("expected high credibility .gov source, got %q", result.Sources[0].Credibility)
	}
	if len(result.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %v", result.Findings)
	}
	if math.Abs(result.ConfidenceScore-0.55) > 1e-9 {
		t.Fatalf("expected confidence 0.55, got %v", result.ConfidenceScore)
	}
	if result.Synthesis != finalAnswer {
		t.Fatal("expected synthesis to equal the final answer")
	}

	if memory.appendedQuery != query.Question {
		t.Fatalf("expected question persisted, got %q", memory.appendedQuery)
	}
	if memory.appendedMetadata["query_id"] != query.ID.String() {
		t.Fatalf("expected query id metadata, got %v", memory.appendedMetadata)
	}
}

func TestResearchPromptIncludesQueryFieldsAndMemory(t *testing.T) {
	executor := &executorStub{outcome: Outcome{Output: "Final words."}}
	memory := &memoryStub{relevant: "Previous Query: old question\nPrevious Finding: old finding..."}
	orchestrator := NewOrchestrator(executor, memory, quietLogger())
	query := testQuery(t)

	orchestrator.Research(context.Background(), query)

	for _, want := range []string{
		"Research Question: What are the best practices for FastAPI in production?",
		"Additional Context: Focus on performance and security",
		"Focus Keywords: fastapi, deployment",
		"Research Type: technical",
		"Maximum Sources: 8",
		"Relevant Previous Research:\nPrevious Query: old question",
	} {
		if !strings.Contains(executor.input, want) {
			t.Fatalf("prompt missing %q:\n%s", want, executor.input)
		}
	}
}

func TestResearchPromptOmitsEmptyOptionalParts(t *testing.T) {
	executor := &executorStub{outcome: Outcome{Output: "Final words."}}
	orchestrator := NewOrchestrator(executor, &memoryStub{}, quietLogger())

	query, err := NewQuery("A plain question with no extras?", "", QueryTypeTechnical, "", 5, nil)
	if err != nil {
		t.Fatalf("new query: %v", err)
	}
	orchestrator.Research(context.Background(), query)

	if strings.Contains(executor.input, "Additional Context:") {
		t.Fatalf("unexpected context section:\n%s", executor.input)
	}
	if strings.Contains(executor.input, "Relevant Previous Research:") {
		t.Fatalf("unexpected memory section:\n%s", executor.input)
	}
}

func TestResearchExecutorFailureYieldsFailedResult(t *testing.T) {
	executor := &executorStub{err: errors.New("model unavailable")}
	orchestrator := NewOrchestrator(executor, &memoryStub{}, quietLogger())

	result := orchestrator.Research(context.Background(), testQuery(t))

	if result.Status != StatusFailed {
		t.Fatalf("expected failed result, got %q", result.Status)
	}
	if len(result.Findings) != 1 || !strings.Contains(result.Findings[0], "model unavailable") {
		t.Fatalf("expected error carried as finding, got %v", result.Findings)
	}
	if result.ConfidenceScore != 0 {
		t.Fatalf("expected zero confidence, got %v", result.ConfidenceScore)
	}
}

func TestResearchMemoryAppendFailureYieldsFailedResult(t *testing.T) {
	executor := &executorStub{outcome: Outcome{Output: "Final words."}}
	memory := &memoryStub{appendErr: errors.New("disk full")}
	orchestrator := NewOrchestrator(executor, memory, quietLogger())

	result := orchestrator.Research(context.Background(), testQuery(t))
	if result.Status != StatusFailed {
		t.Fatalf("expected failed result, got %q", result.Status)
	}
	if !strings.Contains(result.Findings[0], "disk full") {
		t.Fatalf("expected append error in findings, got %v", result.Findings)
	}
}

func TestGenerateReportFromOrchestrator(t *testing.T) {
	executor := &executorStub{outcome: Outcome{Output: "- A sufficiently long bullet point finding here."}}
	orchestrator := NewOrchestrator(executor, &memoryStub{}, quietLogger())
	query := testQuery(t)

	result := orchestrator.Research(context.Background(), query)
	report, err := orchestrator.GenerateReport(result, query, ReportFormatMarkdown)
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}
	if report.Format != ReportFormatMarkdown {
		t.Fatalf("unexpected format: %q", report.Format)
	}
	if len(report.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(report.Sections))
	}
}
