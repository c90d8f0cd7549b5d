package tools

import (
	"context"
	"fmt"
	"strings"
)

// Tool is a named capability the reasoning loop can invoke. Run never
// returns an error: failures are reported inside the observation string
// so the loop can recover and try something else.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) string
}

type Registry struct {
	byName map[string]Tool
	order  []string
}

func NewRegistry(available ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(available))}
	for _, tool := range available {
		r.Register(tool)
	}
	return r
}

func (r *Registry) Register(tool Tool) {
	name := strings.TrimSpace(tool.Name())
	if name == "" {
		return
	}
	if _, exists := r.byName[name]; !exists {
		r.order = append(r.order, name)
	}
	r.byName[name] = tool
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.byName[strings.TrimSpace(name)]
	return tool, ok
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Describe renders the "name: description" listing used in the reasoning prompt.
func (r *Registry) Describe() string {
	var builder strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&builder, "%s: %s\n", name, r.byName[name].Description())
	}
	return strings.TrimRight(builder.String(), "\n")
}
