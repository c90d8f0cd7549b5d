package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"scout/internal/llm"
	"scout/internal/tools"
)

const defaultMaxIterations = 10

const reactPrompt = `You are an expert technical research agent. Your goal is to conduct
thorough research on the given topic and provide accurate, well-sourced information.

You have access to the following tools:

%s

Use the following format:

Question: the input question you must research
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now have enough information to provide a comprehensive answer
Final Answer: the final answer with key findings and synthesis

Important guidelines:
1. Always search for multiple sources to verify information
2. Focus on recent and authoritative sources
3. Extract key technical details and best practices
4. Provide actionable insights when possible
5. Cite your sources in the final answer

Begin!

Question: %s
Thought: %s`

// Step records one tool invocation made during a run.
type Step struct {
	ActionName  string
	Observation string
}

// Outcome is the final answer plus the ordered tool trace behind it.
type Outcome struct {
	Output string
	Steps  []Step
}

// Executor drives a think-act-observe loop against a model and a tool
// registry. The loop is bounded: it stops at the first final answer or
// after maxIterations model calls, whichever comes first. Malformed
// model output is fed back as an observation rather than failing the run.
type Executor struct {
	client        llm.Client
	registry      *tools.Registry
	log           *logrus.Logger
	maxIterations int
}

func NewExecutor(client llm.Client, registry *tools.Registry, log *logrus.Logger, maxIterations int) *Executor {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &Executor{
		client:        client,
		registry:      registry,
		log:           log,
		maxIterations: maxIterations,
	}
}

func (e *Executor) Run(ctx context.Context, input string) (Outcome, error) {
	var scratchpad strings.Builder
	var steps []Step
	lastOutput := ""

	for iteration := 0; iteration < e.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		prompt := fmt.Sprintf(reactPrompt,
			e.registry.Describe(),
			strings.Join(e.registry.Names(), ", "),
			input,
			scratchpad.String())

		resp, err := e.client.Generate(ctx, llm.Request{Prompt: prompt})
		if err != nil {
			return Outcome{}, fmt.Errorf("reasoning step %d: %w", iteration+1, err)
		}
		lastOutput = resp.Content

		if answer, ok := parseFinalAnswer(resp.Content); ok {
			return Outcome{Output: answer, Steps: steps}, nil
		}

		actionName, actionInput, ok := parseAction(resp.Content)
		if !ok {
			e.log.WithField("iteration", iteration+1).Warn("unparseable reasoning output")
			scratchpad.WriteString(resp.Content)
			scratchpad.WriteString("\nObservation: Invalid format. Use either Action/Action Input or Final Answer.\nThought: ")
			continue
		}

		observation := e.invoke(ctx, actionName, actionInput)
		steps = append(steps, Step{ActionName: actionName, Observation: observation})

		scratchpad.WriteString(resp.Content)
		scratchpad.WriteString("\nObservation: ")
		scratchpad.WriteString(observation)
		scratchpad.WriteString("\nThought: ")
	}

	e.log.WithField("max_iterations", e.maxIterations).Warn("reasoning loop exhausted iterations")
	return Outcome{Output: strings.TrimSpace(lastOutput), Steps: steps}, nil
}

func (e *Executor) invoke(ctx context.Context, actionName, actionInput string) string {
	tool, ok := e.registry.Lookup(actionName)
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q. Available tools: %s.", actionName, strings.Join(e.registry.Names(), ", "))
	}
	e.log.WithFields(logrus.Fields{"tool": actionName, "input": actionInput}).Info("invoking tool")
	return tool.Run(ctx, actionInput)
}

func parseFinalAnswer(output string) (string, bool) {
	idx := strings.Index(output, "Final Answer:")
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(output[idx+len("Final Answer:"):]), true
}

func parseAction(output string) (name, input string, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if value, found := strings.CutPrefix(trimmed, "Action:"); found && name == "" {
			name = strings.TrimSpace(value)
			continue
		}
		if value, found := strings.CutPrefix(trimmed, "Action Input:"); found && name != "" {
			input = strings.TrimSpace(value)
			return name, input, true
		}
	}
	if name != "" {
		// Action without input is still dispatchable with an empty input.
		return name, "", true
	}
	return "", "", false
}
