package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockRegistry(t *testing.T) *Registry {
	t.Helper()
	d := NewDispatcher(&scriptBackend{}, newFakeEnv(), DefaultConfig(), nil, nil, nil)
	reg, err := NewRegistry(append(CoreTools(DefaultConfig(), nil), NewTaskTool(d))...)
	require.NoError(t, err)
	return reg
}

func TestDefaultRoleToolsSatisfyInvariants(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), DefaultRoleTools())
	require.NoError(t, err)
}

func TestDefaultRoleToolAssignments(t *testing.T) {
	roles := DefaultRoleTools()

	// The task list is session-local, so read-only sub-agents carry it too.
	assert.Contains(t, roles[RoleResearch], "todowrite")
	assert.Contains(t, roles[RoleWriter], "todowrite")
	assert.NotContains(t, roles[RoleProjectInit], "todowrite")

	assert.NotContains(t, roles[RoleResearch], "write_file")
	assert.NotContains(t, roles[RoleResearch], "bash")
	assert.NotContains(t, roles[RoleWriter], "bash")
	assert.Contains(t, roles[RoleMain], "task")
	assert.NotContains(t, roles[RoleResearch], "task")
}

func TestResearchRoleRejectsMutatingTool(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleResearch: {"read_file", "write_file"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write_file")
}

func TestResearchRoleRejectsExecutionTool(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleResearch: {"bash"},
	})
	require.Error(t, err)
}

func TestWriterRoleRejectsExecutionTool(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleWriter: {"write_file", "bash"},
	})
	require.Error(t, err)
}

func TestWriterRoleAllowsMutatingTools(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleWriter: {"read_file", "write_file", "edit_file", "multiedit"},
	})
	require.NoError(t, err)
}

func TestCapabilityMapRejectsUnknownTool(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleMain: {"no_such_tool"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered")
}

func TestCapabilityMapRejectsDuplicateAssignment(t *testing.T) {
	_, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleMain: {"read_file", "read_file"},
	})
	require.Error(t, err)
}

func TestResolveDeniesOutsideRoleSet(t *testing.T) {
	caps, err := NewCapabilityMap(stockRegistry(t), DefaultRoleTools())
	require.NoError(t, err)

	// bash exists in the registry but not in the research set.
	_, err = caps.Resolve(RoleResearch, "bash")
	var denied *CapabilityDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, RoleResearch, denied.Role)
	assert.Equal(t, "bash", denied.Tool)

	tool, err := caps.Resolve(RoleMain, "bash")
	require.NoError(t, err)
	assert.Equal(t, EffectExecution, tool.Effect)
}

func TestMembersPreservesAssignmentOrder(t *testing.T) {
	caps, err := NewCapabilityMap(stockRegistry(t), map[Role][]string{
		RoleMain: {"grep", "read_file", "glob"},
	})
	require.NoError(t, err)

	members := caps.Members(RoleMain)
	require.Len(t, members, 3)
	assert.Equal(t, "grep", members[0].Name)
	assert.Equal(t, "read_file", members[1].Name)
	assert.Equal(t, "glob", members[2].Name)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	spy := &spyTool{}
	_, err := NewRegistry(spy.tool("dup", EffectReadOnly), spy.tool("dup", EffectReadOnly))
	require.Error(t, err)
}

func TestDefinitionsMatchRoleSet(t *testing.T) {
	caps, err := NewCapabilityMap(stockRegistry(t), DefaultRoleTools())
	require.NoError(t, err)

	defs := caps.Definitions(RoleProjectInit)
	require.Len(t, defs, len(DefaultRoleTools()[RoleProjectInit]))
	for _, def := range defs {
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Description)
	}
}
