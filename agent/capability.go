package agent

import (
	"fmt"

	"cora/llm"
)

// Role names an agent variant with a fixed capability set.
type Role string

const (
	// RoleMain is the top-level interactive agent. Full toolset, including
	// delegation.
	RoleMain Role = "main"
	// RoleResearch is the read-only delegate for searching and analysis.
	RoleResearch Role = "research"
	// RoleWriter is the code-writing delegate. May mutate files but never
	// execute commands.
	RoleWriter Role = "writer"
	// RoleProjectInit is the delegate that analyzes a codebase and writes
	// project guideline documents.
	RoleProjectInit Role = "project-init"
)

// CapabilityMap binds each role to the subset of registry tools it may call.
// Built once at startup; construction enforces the per-role side-effect
// invariants so a violating configuration never runs.
type CapabilityMap struct {
	registry *Registry
	roles    map[Role][]string
}

// DefaultRoleTools is the stock role-to-tool assignment.
func DefaultRoleTools() map[Role][]string {
	return map[Role][]string{
		RoleMain: {
			"read_file", "write_file", "edit_file", "multiedit", "ls",
			"grep", "glob", "bash", "todowrite", "webfetch", "websearch", "task",
		},
		RoleResearch: {
			"read_file", "ls", "grep", "glob", "todowrite", "webfetch", "websearch",
		},
		RoleWriter: {
			"read_file", "write_file", "edit_file", "multiedit", "ls",
			"grep", "glob", "todowrite",
		},
		RoleProjectInit: {
			"read_file", "write_file", "ls", "grep", "glob",
		},
	}
}

// NewCapabilityMap validates the role assignment against the registry and
// the side-effect invariants for each role.
func NewCapabilityMap(reg *Registry, roles map[Role][]string) (*CapabilityMap, error) {
	if reg == nil {
		return nil, fmt.Errorf("capability map requires a registry")
	}
	for role, names := range roles {
		seen := make(map[string]bool, len(names))
		for _, name := range names {
			tool, ok := reg.Lookup(name)
			if !ok {
				return nil, fmt.Errorf("role %s references unregistered tool %q", role, name)
			}
			if seen[name] {
				return nil, fmt.Errorf("role %s lists tool %q twice", role, name)
			}
			seen[name] = true
			if err := checkRoleEffect(role, tool); err != nil {
				return nil, err
			}
		}
	}
	copied := make(map[Role][]string, len(roles))
	for role, names := range roles {
		copied[role] = append([]string(nil), names...)
	}
	return &CapabilityMap{registry: reg, roles: copied}, nil
}

func checkRoleEffect(role Role, tool *Tool) error {
	switch role {
	case RoleResearch:
		if tool.Effect == EffectMutating || tool.Effect == EffectExecution {
			return fmt.Errorf("role %s may not carry %s tool %q", role, tool.Effect, tool.Name)
		}
	case RoleWriter, RoleProjectInit:
		if tool.Effect == EffectExecution {
			return fmt.Errorf("role %s may not carry %s tool %q", role, tool.Effect, tool.Name)
		}
	}
	return nil
}

// Resolve returns the tool for a role's call, or CapabilityDeniedError when
// the tool exists outside the role's set (or not at all).
func (m *CapabilityMap) Resolve(role Role, name string) (*Tool, error) {
	for _, n := range m.roles[role] {
		if n == name {
			tool, _ := m.registry.Lookup(name)
			return tool, nil
		}
	}
	return nil, &CapabilityDeniedError{Role: role, Tool: name}
}

// Members returns the role's tools in assignment order.
func (m *CapabilityMap) Members(role Role) []*Tool {
	names := m.roles[role]
	out := make([]*Tool, 0, len(names))
	for _, name := range names {
		if tool, ok := m.registry.Lookup(name); ok {
			out = append(out, tool)
		}
	}
	return out
}

// Definitions renders the role's tools for the model backend.
func (m *CapabilityMap) Definitions(role Role) []llm.ToolDefinition {
	members := m.Members(role)
	out := make([]llm.ToolDefinition, 0, len(members))
	for _, tool := range members {
		out = append(out, tool.Definition())
	}
	return out
}

// Roles returns the roles that have at least one tool assigned.
func (m *CapabilityMap) Roles() []Role {
	out := make([]Role, 0, len(m.roles))
	for role := range m.roles {
		out = append(out, role)
	}
	return out
}
