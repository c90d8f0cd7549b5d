package research

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ValidationError reports an entity invariant violation at construction
// time. Invalid entities are never built.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type QueryType string

const (
	QueryTypeTechnical   QueryType = "technical"
	QueryTypeComparative QueryType = "comparative"
	QueryTypeExploratory QueryType = "exploratory"
	QueryTypeDeepDive    QueryType = "deep_dive"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Credibility string

const (
	CredibilityHigh    Credibility = "high"
	CredibilityMedium  Credibility = "medium"
	CredibilityLow     Credibility = "low"
	CredibilityUnknown Credibility = "unknown"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusPartial    Status = "partial"
)

const (
	minQuestionLength = 10
	maxSourcesLimit   = 20
	defaultMaxSources = 5
)

// Query is an immutable research request.
type Query struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Context    string    `json:"context"`
	QueryType  QueryType `json:"query_type"`
	Priority   Priority  `json:"priority"`
	MaxSources int       `json:"max_sources"`
	Keywords   []string  `json:"keywords"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewQuery(question, context string, queryType QueryType, priority Priority, maxSources int, keywords []string) (Query, error) {
	question = strings.TrimSpace(question)
	if len(question) < minQuestionLength {
		return Query{}, ValidationError{Field: "question", Reason: fmt.Sprintf("must be at least %d characters long", minQuestionLength)}
	}
	if maxSources == 0 {
		maxSources = defaultMaxSources
	}
	if maxSources < 1 || maxSources > maxSourcesLimit {
		return Query{}, ValidationError{Field: "max_sources", Reason: fmt.Sprintf("must be between 1 and %d", maxSourcesLimit)}
	}
	if queryType == "" {
		queryType = QueryTypeTechnical
	}
	switch priority {
	case "":
		priority = PriorityMedium
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
	default:
		return Query{}, ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown priority %q", priority)}
	}

	cleaned := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}

	return Query{
		ID:         uuid.New(),
		Question:   question,
		Context:    strings.TrimSpace(context),
		QueryType:  queryType,
		Priority:   priority,
		MaxSources: maxSources,
		Keywords:   cleaned,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// SearchQuery joins the question with the focus keywords into one search
// string.
func (q Query) SearchQuery() string {
	if len(q.Keywords) == 0 {
		return q.Question
	}
	return q.Question + " " + strings.Join(q.Keywords, " ")
}

// Source is one consulted search result with an assessed credibility.
type Source struct {
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Snippet     string      `json:"snippet"`
	Credibility Credibility `json:"credibility"`
	RetrievedAt time.Time   `json:"retrieved_at"`
}

func NewSource(title, url, snippet string, credibility Credibility) (Source, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" {
		return Source{}, ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	if url == "" {
		return Source{}, ValidationError{Field: "url", Reason: "cannot be empty"}
	}
	if credibility == "" {
		credibility = CredibilityUnknown
	}
	return Source{
		Title:       title,
		URL:         url,
		Snippet:     strings.TrimSpace(snippet),
		Credibility: credibility,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

// Result is the outcome of one research run. It starts pending and moves
// exactly once to a terminal status; transitions build a new value.
type Result struct {
	ID               uuid.UUID  `json:"id"`
	QueryID          uuid.UUID  `json:"query_id"`
	Status           Status     `json:"status"`
	Sources          []Source   `json:"sources"`
	Findings         []string   `json:"findings"`
	Synthesis        string     `json:"synthesis"`
	ConfidenceScore  float64    `json:"confidence_score"`
	ProcessingTimeMs int64      `json:"processing_time_ms"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func NewPendingResult(queryID uuid.UUID) Result {
	return Result{
		ID:        uuid.New(),
		QueryID:   queryID,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func (r Result) WithResults(sources []Source, findings []string, synthesis string, confidence float64, processingTimeMs int64) (Result, error) {
	if r.Status != StatusPending {
		return Result{}, ValidationError{Field: "status", Reason: fmt.Sprintf("cannot complete from %s", r.Status)}
	}
	if confidence < 0 || confidence > 1 {
		return Result{}, ValidationError{Field: "confidence_score", Reason: "must be between 0 and 1"}
	}
	if processingTimeMs < 0 {
		return Result{}, ValidationError{Field: "processing_time_ms", Reason: "cannot be negative"}
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.Sources = sources
	r.Findings = findings
	r.Synthesis = synthesis
	r.ConfidenceScore = confidence
	r.ProcessingTimeMs = processingTimeMs
	r.CompletedAt = &now
	return r, nil
}

func (r Result) MarkFailed(errorMessage string) (Result, error) {
	if r.Status != StatusPending {
		return Result{}, ValidationError{Field: "status", Reason: fmt.Sprintf("cannot fail from %s", r.Status)}
	}
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.Findings = []string{"Error: " + errorMessage}
	r.Synthesis = ""
	r.ConfidenceScore = 0
	r.CompletedAt = &now
	return r, nil
}

func (r Result) SourceCount() int { return len(r.Sources) }

func (r Result) IsComplete() bool { return r.Status == StatusCompleted }

// ReportSection groups part of the report under a display order.
type ReportSection struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Order   int      `json:"order"`
	Sources []string `json:"sources"`
}

func NewReportSection(title, content string, order int, sources []string) (ReportSection, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return ReportSection{}, ValidationError{Field: "section title", Reason: "cannot be empty"}
	}
	if order < 0 {
		return ReportSection{}, ValidationError{Field: "section order", Reason: "must be non-negative"}
	}
	return ReportSection{
		Title:   title,
		Content: strings.TrimSpace(content),
		Order:   order,
		Sources: sources,
	}, nil
}

type ReportFormat string

const (
	ReportFormatJSON       ReportFormat = "json"
	ReportFormatMarkdown   ReportFormat = "markdown"
	ReportFormatStructured ReportFormat = "structured"
)

// Report is the final rendered deliverable for a completed result.
type Report struct {
	ID               uuid.UUID       `json:"id"`
	ResearchID       uuid.UUID       `json:"research_id"`
	Title            string          `json:"title"`
	ExecutiveSummary string          `json:"executive_summary"`
	Sections         []ReportSection `json:"sections"`
	Recommendations  []string        `json:"recommendations"`
	ConfidenceLevel  string          `json:"confidence_level"`
	Format           ReportFormat    `json:"format"`
	Metadata         map[string]any  `json:"metadata"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SortedSections returns the sections in display order.
func (r Report) SortedSections() []ReportSection {
	sorted := make([]ReportSection, len(r.Sections))
	copy(sorted, r.Sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return sorted
}
