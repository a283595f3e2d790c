package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cora")
	assert.Contains(t, out, Version)
}

func TestConfigCommandShowsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := runCommand(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "provider: anthropic")
	assert.Contains(t, out, "max_iterations: 25")
	assert.Contains(t, out, "api_key: (not set)")
}

func TestConfigCommandMasksKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORA_API_KEY", "sk-abcdefghijklmnop")

	out, err := runCommand(t, "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-abcdefghijklmnop")
	assert.Contains(t, out, "sk-a...mnop")
}

func TestChatCommandRequiresMessage(t *testing.T) {
	_, err := runCommand(t, "chat")
	require.Error(t, err)
}
