package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"scout/internal/llm"
	"scout/internal/memory"
	"scout/internal/research"
)

// Researcher is the orchestrator surface the handlers need.
type Researcher interface {
	Research(ctx context.Context, query research.Query) research.Result
	GenerateReport(result research.Result, query research.Query, format research.ReportFormat) (research.Report, error)
}

type Handler struct {
	researcher Researcher
	store      memory.Store
	llmClient  llm.Client
	toolNames  []string
	timeout    time.Duration
	log        *logrus.Logger
}

func NewHandler(researcher Researcher, store memory.Store, llmClient llm.Client, toolNames []string, timeout time.Duration, log *logrus.Logger) *Handler {
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Handler{
		researcher: researcher,
		store:      store,
		llmClient:  llmClient,
		toolNames:  toolNames,
		timeout:    timeout,
		log:        log,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type researchRequest struct {
	Question   string   `json:"question"`
	Context    string   `json:"context"`
	QueryType  string   `json:"query_type"`
	Priority   string   `json:"priority"`
	MaxSources int      `json:"max_sources"`
	Keywords   []string `json:"keywords"`
	Format     string   `json:"format"`
}

type researchResponse struct {
	QueryID          string            `json:"query_id"`
	Status           research.Status   `json:"status"`
	Synthesis        string            `json:"synthesis"`
	KeyFindings      []string          `json:"key_findings"`
	Sources          []research.Source `json:"sources"`
	ConfidenceScore  float64           `json:"confidence_score"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
}

func (h *Handler) queryFromRequest(w http.ResponseWriter, r *http.Request) (research.Query, researchRequest, error) {
	var req researchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return research.Query{}, req, err
	}
	query, err := research.NewQuery(req.Question, req.Context, research.QueryType(req.QueryType), research.Priority(req.Priority), req.MaxSources, req.Keywords)
	if err != nil {
		return research.Query{}, req, err
	}
	return query, req, nil
}

func (h *Handler) Research(w http.ResponseWriter, r *http.Request) {
	query, _, err := h.queryFromRequest(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result := h.researcher.Research(ctx, query)
	if result.Status != research.StatusCompleted {
		h.writeError(w, http.StatusInternalServerError, codeResearchFailed, firstFinding(result))
		return
	}

	h.writeJSON(w, http.StatusOK, researchResponse{
		QueryID:          result.QueryID.String(),
		Status:           result.Status,
		Synthesis:        result.Synthesis,
		KeyFindings:      result.Findings,
		Sources:          result.Sources,
		ConfidenceScore:  result.ConfidenceScore,
		ProcessingTimeMs: result.ProcessingTimeMs,
	})
}

type reportResponse struct {
	ReportID         string                   `json:"report_id"`
	Title            string                   `json:"title"`
	ExecutiveSummary string                   `json:"executive_summary"`
	Sections         []research.ReportSection `json:"sections"`
	Recommendations  []string                 `json:"recommendations"`
	ConfidenceLevel  string                   `json:"confidence_level"`
	Metadata         map[string]any           `json:"metadata"`
	Markdown         string                   `json:"markdown,omitempty"`
}

func (h *Handler) ResearchReport(w http.ResponseWriter, r *http.Request) {
	query, req, err := h.queryFromRequest(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	format := research.ReportFormat(req.Format)
	if format == "" {
		format = research.ReportFormatJSON
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result := h.researcher.Research(ctx, query)
	report, err := h.researcher.GenerateReport(result, query, format)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, codeReportFailed, err.Error())
		return
	}

	resp := reportResponse{
		ReportID:         report.ID.String(),
		Title:            report.Title,
		ExecutiveSummary: report.ExecutiveSummary,
		Sections:         report.SortedSections(),
		Recommendations:  report.Recommendations,
		ConfidenceLevel:  report.ConfidenceLevel,
		Metadata:         report.Metadata,
	}
	if format == research.ReportFormatMarkdown {
		resp.Markdown = report.Markdown()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type memoryResponse struct {
	TotalEntries int                  `json:"total_entries"`
	MaxEntries   int                  `json:"max_entries"`
	OldestEntry  string               `json:"oldest_entry,omitempty"`
	NewestEntry  string               `json:"newest_entry,omitempty"`
	Entries      []memory.Interaction `json:"entries"`
}

func (h *Handler) MemoryState(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, codeMemoryUnavailable, err.Error())
		return
	}
	entries, err := h.store.Recent(r.Context(), summary.MaxEntries)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, codeMemoryUnavailable, err.Error())
		return
	}
	if entries == nil {
		entries = []memory.Interaction{}
	}
	h.writeJSON(w, http.StatusOK, memoryResponse{
		TotalEntries: summary.TotalEntries,
		MaxEntries:   summary.MaxEntries,
		OldestEntry:  summary.OldestEntry,
		NewestEntry:  summary.NewestEntry,
		Entries:      entries,
	})
}

func (h *Handler) MemoryClear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, codeMemoryUnavailable, err.Error())
		return
	}
	h.log.Info("memory cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, codeMemoryUnavailable, err.Error())
		return
	}

	llmHealthy := false
	if h.llmClient != nil {
		llmHealthy = h.llmClient.HealthCheck(r.Context())
	}

	status := "healthy"
	if !llmHealthy {
		status = "degraded"
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"components": map[string]any{
			"agent": map[string]any{
				"tools":  h.toolNames,
				"status": "ready",
			},
			"llm": map[string]any{
				"healthy": llmHealthy,
			},
			"memory": summary,
		},
	})
}

func firstFinding(result research.Result) string {
	if len(result.Findings) > 0 {
		return result.Findings[0]
	}
	return "research failed to complete"
}
