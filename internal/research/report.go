package research

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxSectionSourceURLs = 5

// ConfidenceLabel maps a confidence score to its human-readable level.
// Lower bounds are inclusive.
func ConfidenceLabel(score float64) string {
	switch {
	case score >= 0.8:
		return "High - Results are well-supported by multiple sources"
	case score >= 0.6:
		return "Medium - Results are reasonably supported"
	case score >= 0.4:
		return "Low - Results should be verified"
	default:
		return "Very Low - Insufficient evidence"
	}
}

// BuildReport assembles the canonical three-section report for a result.
func BuildReport(result Result, query Query, format ReportFormat) (Report, error) {
	if format == "" {
		format = ReportFormatJSON
	}

	overview, err := NewReportSection(
		"Research Overview",
		fmt.Sprintf("This research investigated: %s", query.Question),
		1, nil)
	if err != nil {
		return Report{}, err
	}

	var findingLines []string
	for _, finding := range result.Findings {
		findingLines = append(findingLines, "• "+finding)
	}
	sourceURLs := make([]string, 0, maxSectionSourceURLs)
	for _, source := range result.Sources {
		sourceURLs = append(sourceURLs, source.URL)
		if len(sourceURLs) >= maxSectionSourceURLs {
			break
		}
	}
	keyFindings, err := NewReportSection("Key Findings", strings.Join(findingLines, "\n"), 2, sourceURLs)
	if err != nil {
		return Report{}, err
	}

	analysis, err := NewReportSection("Analysis", result.Synthesis, 3, nil)
	if err != nil {
		return Report{}, err
	}

	title := query.Question
	if runes := []rune(title); len(runes) > 50 {
		title = string(runes[:50]) + "..."
	}

	executiveSummary := result.Synthesis
	if strings.TrimSpace(executiveSummary) == "" {
		executiveSummary = "No synthesis available."
	}

	return Report{
		ID:               uuid.New(),
		ResearchID:       result.ID,
		Title:            "Research Report: " + title,
		ExecutiveSummary: executiveSummary,
		Sections:         []ReportSection{overview, keyFindings, analysis},
		Recommendations:  Recommendations(result),
		ConfidenceLevel:  ConfidenceLabel(result.ConfidenceScore),
		Format:           format,
		Metadata: map[string]any{
			"sources_consulted":  result.SourceCount(),
			"findings_count":     len(result.Findings),
			"processing_time_ms": result.ProcessingTimeMs,
			"confidence_score":   result.ConfidenceScore,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Markdown renders the report with a fixed heading structure.
func (r Report) Markdown() string {
	var lines []string
	lines = append(lines,
		"# "+r.Title,
		"",
		"## Executive Summary",
		"",
		r.ExecutiveSummary,
		"",
	)

	for _, section := range r.SortedSections() {
		lines = append(lines, "## "+section.Title, "", section.Content, "")
		if len(section.Sources) > 0 {
			lines = append(lines, "**Sources:**")
			for _, source := range section.Sources {
				lines = append(lines, "- "+source)
			}
			lines = append(lines, "")
		}
	}

	if len(r.Recommendations) > 0 {
		lines = append(lines, "## Recommendations", "")
		for i, recommendation := range r.Recommendations {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, recommendation))
		}
		lines = append(lines, "")
	}

	lines = append(lines,
		"---",
		fmt.Sprintf("*Confidence Level: %s*", r.ConfidenceLevel),
		fmt.Sprintf("*Generated at: %s*", r.CreatedAt.Format(time.RFC3339)),
	)

	return strings.Join(lines, "\n")
}
