package research

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestExtractSourcesParsesResultBlocks(t *testing.T) {
	observation := "Result 1:\n" +
		"Title: Deployment Guidelines\n" +
		"URL: https://www.cisa.gov/guidelines\n" +
		"Snippet: Official deployment guidance.\n" +
		"\n" +
		"Result 2:\n" +
		"Title: Community Thread\n" +
		"Link: stackoverflow.com/q/123\n" +
		"Description: Discussion of deployment pitfalls.\n"

	sources := ExtractSources([]TraceStep{{ActionName: "web_search", Observation: observation}})
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %+v", len(sources), sources)
	}
	if sources[0].Credibility != CredibilityHigh {
		t.Fatalf("expected .gov source to be high credibility, got %q", sources[0].Credibility)
	}
	if sources[1].URL != "https://stackoverflow.com/q/123" {
		t.Fatalf("expected normalized absolute url, got %q", sources[1].URL)
	}
	if sources[1].Credibility != CredibilityHigh {
		t.Fatalf("expected stackoverflow to be high credibility, got %q", sources[1].Credibility)
	}
}

func TestExtractSourcesIgnoresNonSearchSteps(t *testing.T) {
	observation := "Result 1:\nTitle: Should Be Ignored\nURL: https://example.com\nSnippet: text here\n"
	sources := ExtractSources([]TraceStep{{ActionName: "text_analyzer", Observation: observation}})
	if len(sources) != 0 {
		t.Fatalf("expected no sources from non-search step, got %d", len(sources))
	}
}

func TestExtractSourcesDefaults(t *testing.T) {
	observation := "Result 1:\nTitle: Bare Title Entry\n"
	sources := ExtractSources([]TraceStep{{ActionName: "news_search", Observation: observation}})
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	if sources[0].URL != "https://duckduckgo.com" {
		t.Fatalf("expected default url, got %q", sources[0].URL)
	}
	if sources[0].Snippet != "Bare Title Entry" {
		t.Fatalf("expected snippet to default to title, got %q", sources[0].Snippet)
	}
}

func TestExtractSourcesCapsAtTen(t *testing.T) {
	var builder strings.Builder
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&builder, "Result %d:\nTitle: Source Number %d\nURL: https://example.com/page-%d\nSnippet: Some snippet text.\n\n", i, i, i)
	}
	sources := ExtractSources([]TraceStep{{ActionName: "web_search", Observation: builder.String()}})
	if len(sources) != 10 {
		t.Fatalf("expected cap of 10 sources, got %d", len(sources))
	}
}

func TestSourceFilteringBlockedDomain(t *testing.T) {
	observation := "Result 1:\n" +
		"Title: Perfectly Valid Title\n" +
		"URL: https://www.facebook.com/some-post\n" +
		"Snippet: A perfectly valid snippet.\n"

	sources := ExtractSources([]TraceStep{{ActionName: "web_search", Observation: observation}})
	if len(sources) != 0 {
		t.Fatalf("expected facebook.com source to be dropped, got %+v", sources)
	}
}

func TestSourceFilteringNonLatinTitle(t *testing.T) {
	observation := "Result 1:\n" +
		"Title: 研究結果の要約です\n" +
		"URL: https://example.org/article\n" +
		"Snippet: A valid latin snippet here.\n"

	sources := ExtractSources([]TraceStep{{ActionName: "web_search", Observation: observation}})
	if len(sources) != 0 {
		t.Fatalf("expected non-latin title to be dropped, got %+v", sources)
	}
}

func TestIsValidLatinText(t *testing.T) {
	if isValidLatinText("abc") {
		t.Fatal("strings shorter than 5 runes are invalid")
	}
	if !isValidLatinText("Información técnica 2024") {
		t.Fatal("accented latin text should be valid")
	}
	if isValidLatinText("研究結果要約") {
		t.Fatal("fully non-latin text should be invalid")
	}
}

func TestExtractFindingsBullets(t *testing.T) {
	answer := "Here is what I found:\n" +
		"- Use connection pooling for the database layer\n" +
		"• Enable response compression at the proxy\n" +
		"3. Configure worker counts from CPU topology\n" +
		"- no\n" +
		"Regular prose line that is quite long but not a bullet.\n"

	findings := ExtractFindings(answer)
	if len(findings) != 3 {
		t.Fatalf("expected 3 findings, got %d: %v", len(findings), findings)
	}
	if findings[0] != "Use connection pooling for the database layer" {
		t.Fatalf("unexpected first finding: %q", findings[0])
	}
}

func TestExtractFindingsKeywordSentences(t *testing.T) {
	answer := "The deployment went smoothly overall. " +
		"It is important to configure health checks for every service. " +
		"Es clave establecer límites de memoria para los contenedores. " +
		"The weather was nice."

	findings := ExtractFindings(answer)
	if len(findings) != 2 {
		t.Fatalf("expected 2 keyword findings, got %d: %v", len(findings), findings)
	}
	if !strings.Contains(findings[0], "important to configure health checks") {
		t.Fatalf("unexpected finding: %q", findings[0])
	}
}

func TestExtractFindingsLastResortSentences(t *testing.T) {
	answer := "The system processes events through a streaming pipeline built on partitioned logs. " +
		"Each consumer group maintains independent offsets across all partitions in the topic."

	findings := ExtractFindings(answer)
	if len(findings) == 0 {
		t.Fatalf("expected last-resort findings for a long answer, got none")
	}
}

func TestExtractFindingsEmptyAnswer(t *testing.T) {
	if findings := ExtractFindings("Short answer."); len(findings) != 0 {
		t.Fatalf("expected no findings, got %v", findings)
	}
}

func TestConfidenceScoreBounds(t *testing.T) {
	if score := ConfidenceScore(nil, nil); score != 0 {
		t.Fatalf("expected exactly 0 with no evidence, got %v", score)
	}

	var sources []Source
	for i := 0; i < 20; i++ {
		source, err := NewSource("Some Valid Title", "https://www.nasa.gov/page", "snippet", CredibilityHigh)
		if err != nil {
			t.Fatalf("new source: %v", err)
		}
		sources = append(sources, source)
	}
	findings := make([]string, 20)
	for i := range findings {
		findings[i] = "finding"
	}

	score := ConfidenceScore(sources, findings)
	if score < 0 || score > 1 {
		t.Fatalf("score out of range: %v", score)
	}
	if score != 1.0 {
		t.Fatalf("expected saturated score 1.0, got %v", score)
	}
}

func TestConfidenceScoreEndToEndScenario(t *testing.T) {
	source, err := NewSource("Official Guidance", "https://www.cisa.gov/guidelines", "snippet", CredibilityHigh)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	findings := []string{"first finding", "second finding", "third finding"}

	score := ConfidenceScore([]Source{source}, findings)
	if math.Abs(score-0.55) > 1e-9 {
		t.Fatalf("expected 0.55, got %v", score)
	}
}

func TestRecommendationsRules(t *testing.T) {
	lowConfidence := Result{ConfidenceScore: 0.2}
	recs := Recommendations(lowConfidence)
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %v", recs)
	}
	if !strings.Contains(recs[0], "additional research") {
		t.Fatalf("expected more-research recommendation first, got %q", recs[0])
	}
	if recs[len(recs)-1] != "Document any decisions made based on this research for future reference" {
		t.Fatalf("expected documentation recommendation last, got %q", recs[len(recs)-1])
	}

	strong := Result{
		ConfidenceScore: 0.9,
		Sources:         make([]Source, 5),
		Findings:        []string{"a finding"},
	}
	recs = Recommendations(strong)
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations for strong result, got %v", recs)
	}
}
