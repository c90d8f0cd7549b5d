package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"scout/internal/llm"
)

const minAnalyzableRunes = 10

var analysisPrompts = map[string]string{
	"summarize":       "Provide a concise summary of the following text in 2-3 sentences:\n\n%s",
	"key_points":      "Extract the key points from the following text as a bulleted list:\n\n%s",
	"sentiment":       "Analyze the sentiment of the following text. Indicate if it's positive, negative, or neutral, and explain why:\n\n%s",
	"technical_terms": "Identify and explain the technical terms used in the following text:\n\n%s",
	"pros_cons":       "List the pros and cons discussed or implied in the following text:\n\n%s",
}

// TextAnalyzerTool analyzes text with the configured model, falling back to
// rule-based heuristics whenever the model is unavailable or errors.
type TextAnalyzerTool struct {
	client llm.Client
	log    *logrus.Logger
}

func NewTextAnalyzerTool(client llm.Client, log *logrus.Logger) *TextAnalyzerTool {
	return &TextAnalyzerTool{client: client, log: log}
}

func (t *TextAnalyzerTool) Name() string { return "text_analyzer" }

func (t *TextAnalyzerTool) Description() string {
	return "Analyze text content to extract insights. " +
		"Can summarize text, extract key points, analyze sentiment, identify technical terms, or list pros and cons. " +
		"Input is either plain text or a JSON object with \"text\" and \"analysis_type\" " +
		"(summarize, key_points, sentiment, technical_terms, pros_cons)."
}

type analyzerInput struct {
	Text         string `json:"text"`
	AnalysisType string `json:"analysis_type"`
}

func (t *TextAnalyzerTool) Run(ctx context.Context, input string) string {
	text, analysisType := parseAnalyzerInput(input)
	if len(strings.TrimSpace(text)) < minAnalyzableRunes {
		return "Error: Text is too short to analyze."
	}

	t.log.WithFields(logrus.Fields{"analysis_type": analysisType, "text_length": len(text)}).Info("analyzing text")

	if t.client != nil {
		template, ok := analysisPrompts[analysisType]
		if !ok {
			template = "Analyze the following text:\n\n%s"
		}
		resp, err := t.client.Generate(ctx, llm.Request{Prompt: fmt.Sprintf(template, text)})
		if err == nil && strings.TrimSpace(resp.Content) != "" {
			return resp.Content
		}
		if err != nil {
			t.log.WithError(err).Warn("model analysis failed, using rule-based fallback")
		}
	}

	return ruleBasedAnalysis(text, analysisType)
}

func parseAnalyzerInput(input string) (text, analysisType string) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "{") {
		var parsed analyzerInput
		if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && strings.TrimSpace(parsed.Text) != "" {
			analysisType = strings.TrimSpace(parsed.AnalysisType)
			if analysisType == "" {
				analysisType = "summarize"
			}
			return parsed.Text, analysisType
		}
	}
	return trimmed, "summarize"
}

func ruleBasedAnalysis(text, analysisType string) string {
	switch analysisType {
	case "summarize":
		sentences := splitSentences(text)
		if len(sentences) <= 3 {
			return text
		}
		return fmt.Sprintf("Summary: %s. %s.", sentences[0], sentences[len(sentences)-1])

	case "key_points":
		sentences := splitSentences(text)
		indicators := []string{"important", "key", "main", "critical", "essential", "primary", "significant", "must", "should"}
		var points []string
		for _, sentence := range sentences {
			lower := strings.ToLower(sentence)
			for _, indicator := range indicators {
				if strings.Contains(lower, indicator) {
					points = append(points, "• "+strings.TrimSpace(sentence))
					break
				}
			}
		}
		if len(points) == 0 {
			for _, sentence := range sentences[:min(3, len(sentences))] {
				points = append(points, "• "+strings.TrimSpace(sentence))
			}
		}
		if len(points) > 5 {
			points = points[:5]
		}
		return "Key Points:\n" + strings.Join(points, "\n")

	case "sentiment":
		positive := []string{"good", "great", "excellent", "best", "amazing", "wonderful", "fantastic", "love", "like", "helpful", "useful", "benefit"}
		negative := []string{"bad", "poor", "worst", "terrible", "hate", "dislike", "problem", "issue", "difficult", "fail", "error", "wrong"}
		lower := strings.ToLower(text)
		posCount := countContained(lower, positive)
		negCount := countContained(lower, negative)

		sentiment := "Neutral"
		switch {
		case float64(posCount) > float64(negCount)*1.5:
			sentiment = "Positive"
		case float64(negCount) > float64(posCount)*1.5:
			sentiment = "Negative"
		}
		return fmt.Sprintf("Sentiment: %s (positive indicators: %d, negative indicators: %d)", sentiment, posCount, negCount)

	case "technical_terms":
		known := map[string]struct{}{"API": {}, "SDK": {}, "HTTP": {}, "JSON": {}, "SQL": {}, "REST": {}, "GraphQL": {}}
		terms := make(map[string]struct{})
		for _, word := range strings.Fields(text) {
			clean := strings.Trim(word, ".,!?()[]{}\"'")
			if clean == "" {
				continue
			}
			if _, ok := known[clean]; ok {
				terms[clean] = struct{}{}
				continue
			}
			if len(clean) > 2 && clean == strings.ToUpper(clean) && clean != strings.ToLower(clean) {
				terms[clean] = struct{}{}
			}
		}
		if len(terms) == 0 {
			return "No specific technical terms identified."
		}
		names := make([]string, 0, len(terms))
		for term := range terms {
			names = append(names, term)
		}
		sort.Strings(names)
		return "Technical Terms Found: " + strings.Join(names, ", ")

	case "pros_cons":
		proWords := []string{"advantage", "benefit", "pro", "good", "strength"}
		conWords := []string{"disadvantage", "drawback", "con", "issue", "weakness"}
		var pros, cons []string
		for _, sentence := range splitSentences(text) {
			lower := strings.ToLower(sentence)
			switch {
			case containsAny(lower, proWords):
				pros = append(pros, strings.TrimSpace(sentence))
			case containsAny(lower, conWords):
				cons = append(cons, strings.TrimSpace(sentence))
			}
		}
		var sections []string
		if len(pros) > 0 {
			sections = append(sections, "Pros:\n"+prefixLines(pros, "+ ", 3))
		}
		if len(cons) > 0 {
			sections = append(sections, "Cons:\n"+prefixLines(cons, "- ", 3))
		}
		if len(sections) == 0 {
			return "No clear pros or cons identified."
		}
		return strings.Join(sections, "\n\n")
	}

	return fmt.Sprintf("Analysis type %q not supported.", analysisType)
}

func splitSentences(text string) []string {
	flat := strings.ReplaceAll(text, "\n", " ")
	parts := strings.Split(flat, ". ")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(strings.TrimSuffix(part, "."))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func countContained(haystack string, needles []string) int {
	count := 0
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			count++
		}
	}
	return count
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func prefixLines(lines []string, prefix string, limit int) string {
	if len(lines) > limit {
		lines = lines[:limit]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = prefix + line
	}
	return strings.Join(out, "\n")
}
