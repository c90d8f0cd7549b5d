package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const relevantContextEntries = 3

// Executor is the external reasoning loop: given a prompt it returns a
// final answer plus the ordered trace of tool invocations behind it.
type Executor interface {
	Run(ctx context.Context, input string) (Outcome, error)
}

// Outcome is the executor's view of a finished run.
type Outcome struct {
	Output string
	Steps  []TraceStep
}

// Memory is the slice of the interaction store the orchestrator needs.
type Memory interface {
	RelevantContext(ctx context.Context, query string, maxEntries int) (string, error)
	Append(ctx context.Context, query, response string, metadata map[string]string) error
}

// Orchestrator drives one research request end to end: prompt assembly,
// reasoning-loop invocation, trace interpretation and memory persistence.
type Orchestrator struct {
	executor Executor
	memory   Memory
	log      *logrus.Logger
}

func NewOrchestrator(executor Executor, memory Memory, log *logrus.Logger) *Orchestrator {
	return &Orchestrator{executor: executor, memory: memory, log: log}
}

// Research runs the full pipeline for one query. It never returns an
// error: any failure along the way yields a terminal FAILED result
// carrying the error message as its single finding.
func (o *Orchestrator) Research(ctx context.Context, query Query) Result {
	start := time.Now()
	pending := NewPendingResult(query.ID)

	o.log.WithFields(logrus.Fields{
		"query_id":   query.ID,
		"query_type": query.QueryType,
	}).Info("starting research")

	completed, err := o.runResearch(ctx, query, pending, start)
	if err != nil {
		o.log.WithError(err).WithField("query_id", query.ID).Error("research failed")
		failed, markErr := pending.MarkFailed(err.Error())
		if markErr != nil {
			// Pending results always admit the failed transition.
			o.log.WithError(markErr).Error("could not mark result failed")
		}
		return failed
	}

	o.log.WithFields(logrus.Fields{
		"query_id":   query.ID,
		"sources":    completed.SourceCount(),
		"findings":   len(completed.Findings),
		"confidence": completed.ConfidenceScore,
		"time_ms":    completed.ProcessingTimeMs,
	}).Info("research completed")
	return completed
}

func (o *Orchestrator) runResearch(ctx context.Context, query Query, pending Result, start time.Time) (Result, error) {
	prompt, err := o.buildPrompt(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("build prompt: %w", err)
	}

	outcome, err := o.executor.Run(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("reasoning loop: %w", err)
	}

	sources := ExtractSources(outcome.Steps)
	findings := ExtractFindings(outcome.Output)
	confidence := ConfidenceScore(sources, findings)
	elapsed := time.Since(start).Milliseconds()

	if err := o.memory.Append(ctx, query.Question, outcome.Output, map[string]string{
		"query_id": query.ID.String(),
	}); err != nil {
		return Result{}, fmt.Errorf("persist interaction: %w", err)
	}

	completed, err := pending.WithResults(sources, findings, outcome.Output, confidence, elapsed)
	if err != nil {
		return Result{}, fmt.Errorf("complete result: %w", err)
	}
	return completed, nil
}

func (o *Orchestrator) buildPrompt(ctx context.Context, query Query) (string, error) {
	parts := []string{fmt.Sprintf("Research Question: %s", query.Question)}

	if query.Context != "" {
		parts = append(parts, fmt.Sprintf("\nAdditional Context: %s", query.Context))
	}
	if len(query.Keywords) > 0 {
		parts = append(parts, fmt.Sprintf("\nFocus Keywords: %s", strings.Join(query.Keywords, ", ")))
	}
	parts = append(parts, fmt.Sprintf("\nResearch Type: %s", query.QueryType))
	parts = append(parts, fmt.Sprintf("\nMaximum Sources: %d", query.MaxSources))

	recentContext, err := o.memory.RelevantContext(ctx, query.Question, relevantContextEntries)
	if err != nil {
		return "", err
	}
	if recentContext != "" {
		parts = append(parts, fmt.Sprintf("\nRelevant Previous Research:\n%s", recentContext))
	}

	return strings.Join(parts, "\n"), nil
}

// GenerateReport turns a terminal result into its structured report.
func (o *Orchestrator) GenerateReport(result Result, query Query, format ReportFormat) (Report, error) {
	report, err := BuildReport(result, query, format)
	if err != nil {
		return Report{}, err
	}
	o.log.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"research_id": result.ID,
		"sections":    len(report.Sections),
		"format":      report.Format,
	}).Info("report generated")
	return report, nil
}
