package agent

import (
	"context"

	"scout/internal/research"
)

// researchExecutor exposes the executor through the orchestrator's
// boundary types.
type researchExecutor struct {
	executor *Executor
}

func NewResearchExecutor(executor *Executor) research.Executor {
	return researchExecutor{executor: executor}
}

func (r researchExecutor) Run(ctx context.Context, input string) (research.Outcome, error) {
	outcome, err := r.executor.Run(ctx, input)
	if err != nil {
		return research.Outcome{}, err
	}
	steps := make([]research.TraceStep, len(outcome.Steps))
	for i, step := range outcome.Steps {
		steps[i] = research.TraceStep{ActionName: step.ActionName, Observation: step.Observation}
	}
	return research.Outcome{Output: outcome.Output, Steps: steps}, nil
}
