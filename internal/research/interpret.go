package research

import (
	"regexp"
	"strings"
)

const (
	maxExtractedSources  = 10
	maxExtractedFindings = 10
	defaultSourceURL     = "https://duckduckgo.com"
)

// TraceStep is one (action, observation) pair from the reasoning loop.
type TraceStep struct {
	ActionName  string
	Observation string
}

var resultBlockRE = regexp.MustCompile(`(?m)^\s*(?:Result|News)\s+\d+:\s*$`)

// highCredibilityDomains classify a source HIGH when the URL host matches.
var highCredibilityDomains = []string{
	"wikipedia.org",
	".gov",
	".edu",
	"nature.com",
	"sciencedirect.com",
	"ieee.org",
	"acm.org",
	"arxiv.org",
	"github.com",
	"stackoverflow.com",
	"mozilla.org",
	"python.org",
	"golang.org",
}

var mediumCredibilityDomains = []string{
	"medium.com",
	"dev.to",
	"bbc.com",
	"reuters.com",
	"nytimes.com",
	"theguardian.com",
	"techcrunch.com",
	"wired.com",
	"arstechnica.com",
}

// blockedDomainFragments drop a source outright when the URL contains one.
var blockedDomainFragments = []string{
	"facebook.com",
	"instagram.com",
	"tiktok.com",
	"twitter.com",
	"x.com/",
	"pinterest.com",
	"quora.com",
	"reddit.com",
	"spam",
	"clickbait",
	"ads.",
	"doubleclick",
}

var findingKeywords = []string{
	"important", "key", "best", "recommend", "should", "must", "critical", "essential",
	"importante", "clave", "mejor", "recomend", "debe", "esencial", "fundamental",
}

// ExtractSources walks the trace, parses every search-like observation into
// source records, filters low-quality entries and caps the merged list.
// Parsing is best-effort: malformed text yields fewer sources, never an error.
func ExtractSources(steps []TraceStep) []Source {
	var sources []Source
	for _, step := range steps {
		if !strings.Contains(strings.ToLower(step.ActionName), "search") {
			continue
		}
		for _, parsed := range parseSearchObservation(step.Observation) {
			if !keepSource(parsed) {
				continue
			}
			parsed.Credibility = assessCredibility(parsed.URL)
			sources = append(sources, parsed)
			if len(sources) >= maxExtractedSources {
				return sources
			}
		}
	}
	return sources
}

func parseSearchObservation(observation string) []Source {
	blocks := resultBlockRE.Split(observation, -1)
	var parsed []Source
	for _, block := range blocks {
		source, ok := parseSourceBlock(block)
		if ok {
			parsed = append(parsed, source)
		}
	}
	return parsed
}

func parseSourceBlock(block string) (Source, bool) {
	var title, url, snippet string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Title:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "Title:"))
		case strings.HasPrefix(line, "URL:"):
			url = normalizeURL(strings.TrimSpace(strings.TrimPrefix(line, "URL:")))
		case strings.HasPrefix(line, "Link:"):
			url = normalizeURL(strings.TrimSpace(strings.TrimPrefix(line, "Link:")))
		case strings.HasPrefix(line, "Snippet:"):
			snippet = strings.TrimSpace(strings.TrimPrefix(line, "Snippet:"))
		case strings.HasPrefix(line, "Description:"):
			snippet = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case strings.HasPrefix(line, "Summary:"):
			snippet = strings.TrimSpace(strings.TrimPrefix(line, "Summary:"))
		default:
			if snippet == "" && title != "" && len(line) > 20 {
				snippet = line
			}
		}
	}

	if title == "" || title == "N/A" {
		return Source{}, false
	}
	if url == "" || url == "N/A" {
		url = defaultSourceURL
	}
	if snippet == "" || snippet == "N/A" {
		snippet = title
	}

	source, err := NewSource(title, url, snippet, CredibilityMedium)
	if err != nil {
		return Source{}, false
	}
	return source, true
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "" || raw == "N/A":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	default:
		return "https://" + raw
	}
}

func assessCredibility(url string) Credibility {
	lower := strings.ToLower(url)
	for _, domain := range highCredibilityDomains {
		if strings.Contains(lower, domain) {
			return CredibilityHigh
		}
	}
	for _, domain := range mediumCredibilityDomains {
		if strings.Contains(lower, domain) {
			return CredibilityMedium
		}
	}
	return CredibilityMedium
}

func keepSource(source Source) bool {
	lowerURL := strings.ToLower(source.URL)
	for _, fragment := range blockedDomainFragments {
		if strings.Contains(lowerURL, fragment) {
			return false
		}
	}
	if !isValidLatinText(source.Title) {
		return false
	}
	if source.Snippet != "" && source.Snippet != source.Title && !isValidLatinText(source.Snippet) {
		return false
	}
	return true
}

// isValidLatinText accepts strings of at least 5 characters where more than
// half the characters are ASCII or Latin-1 letters, digits, or spaces.
func isValidLatinText(text string) bool {
	runes := []rune(text)
	if len(runes) < 5 {
		return false
	}
	latin := 0
	for _, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			latin++
		case r >= '0' && r <= '9', r == ' ':
			latin++
		case r >= 0xC0 && r <= 0xFF:
			latin++
		}
	}
	return float64(latin)/float64(len(runes)) > 0.5
}

// ExtractFindings pulls key findings from the final answer: bullet and
// numbered lines first, then keyword-bearing sentences, then long sentences
// as a last resort for substantial answers.
func ExtractFindings(finalAnswer string) []string {
	var findings []string
	for _, line := range strings.Split(finalAnswer, "\n") {
		trimmed := strings.TrimSpace(line)
		if !isBulletLine(trimmed) {
			continue
		}
		stripped := strings.TrimSpace(strings.TrimLeft(trimmed, "-•*0123456789.) "))
		if len(stripped) > 15 {
			findings = append(findings, stripped)
			if len(findings) >= maxExtractedFindings {
				return findings
			}
		}
	}
	if len(findings) > 0 {
		return findings
	}

	sentences := splitAnswerSentences(finalAnswer)
	for _, sentence := range sentences {
		if len(sentence) <= 30 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, keyword := range findingKeywords {
			if strings.Contains(lower, keyword) {
				findings = append(findings, sentence+".")
				break
			}
		}
		if len(findings) >= 5 {
			break
		}
	}
	if len(findings) > 0 {
		return findings
	}

	if len(finalAnswer) > 100 {
		for _, sentence := range sentences {
			if len(sentence) > 40 {
				findings = append(findings, sentence+".")
				if len(findings) >= 5 {
					break
				}
			}
		}
	}
	return findings
}

func isBulletLine(line string) bool {
	if line == "" {
		return false
	}
	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "*") {
		return true
	}
	if len(line) > 2 && line[0] >= '0' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return true
	}
	return false
}

func splitAnswerSentences(text string) []string {
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

// ConfidenceScore rewards breadth of evidence with capped per-signal
// contributions so no single signal dominates.
func ConfidenceScore(sources []Source, findings []string) float64 {
	score := 0.0
	if len(sources) > 0 || len(findings) > 0 {
		score += 0.3
	}
	score += minFloat(float64(len(sources))*0.07, 0.35)
	score += minFloat(float64(len(findings))*0.05, 0.25)

	highCount := 0
	for _, source := range sources {
		if source.Credibility == CredibilityHigh {
			highCount++
		}
	}
	score += minFloat(float64(highCount)*0.03, 0.1)

	return minFloat(score, 1.0)
}

// Recommendations derives the fixed, deterministic advice list for a result.
func Recommendations(result Result) []string {
	var recommendations []string
	if result.ConfidenceScore < 0.5 {
		recommendations = append(recommendations, "Consider conducting additional research with more specific queries")
	}
	if result.SourceCount() < 3 {
		recommendations = append(recommendations, "Verify findings with additional authoritative sources")
	}
	if len(result.Findings) > 0 {
		recommendations = append(recommendations, "Review key findings and prioritize implementation based on impact")
	}
	recommendations = append(recommendations, "Document any decisions made based on this research for future reference")
	return recommendations
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
