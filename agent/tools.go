package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"cora/llm"
)

// Effect classifies a tool's side effects. The classification drives the
// approval gate (mutating tools only) and role capability invariants.
type Effect string

const (
	// EffectReadOnly tools inspect state without changing it.
	EffectReadOnly Effect = "read_only"
	// EffectMutating tools change durable state and pass through the
	// approval gate before execution.
	EffectMutating Effect = "mutating"
	// EffectExecution tools run arbitrary commands.
	EffectExecution Effect = "execution"
)

// Executor runs a tool against decoded, validated arguments. The args value
// is the pointer returned by the tool's NewArgs.
type Executor func(ctx context.Context, args any, env Environment) (string, error)

// Tool couples a callable identity with its parameter schema, side-effect
// class, and executor.
type Tool struct {
	Name        string
	Description string
	// Parameters is the JSON Schema advertised to the model.
	Parameters map[string]interface{}
	Effect     Effect
	// NewArgs returns a fresh pointer to the tool's argument struct; raw
	// call arguments are unmarshaled into it and validated before Run.
	NewArgs func() any
	Run     Executor
	// Parallel marks calls that the loop may start concurrently with the
	// rest of the batch instead of in listed order.
	Parallel bool
}

// Definition renders the tool for the model backend.
func (t *Tool) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

var argValidator = validator.New(validator.WithRequiredStructEnabled())

// DecodeArgs unmarshals and validates raw call arguments. Any failure is
// reported as a SchemaViolationError.
func (t *Tool) DecodeArgs(raw json.RawMessage) (any, error) {
	args := t.NewArgs()
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, args); err != nil {
		return nil, &SchemaViolationError{Tool: t.Name, Err: err}
	}
	if err := argValidator.Struct(args); err != nil {
		return nil, &SchemaViolationError{Tool: t.Name, Err: err}
	}
	return args, nil
}

// Registry is an immutable name-to-tool table built once at startup.
type Registry struct {
	byName map[string]*Tool
	names  []string
}

// NewRegistry builds a Registry from the given tools. Duplicate or empty
// names are rejected.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Tool, len(tools))}
	for i := range tools {
		t := tools[i]
		if t.Name == "" {
			return nil, fmt.Errorf("tool at index %d has no name", i)
		}
		if t.NewArgs == nil || t.Run == nil {
			return nil, fmt.Errorf("tool %q is missing an argument prototype or executor", t.Name)
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name)
		}
		r.byName[t.Name] = &t
		r.names = append(r.names, t.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (*Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
