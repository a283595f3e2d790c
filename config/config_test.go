package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 50, cfg.SubagentMaxIterations)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.False(t, cfg.AutoApprove)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cora.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"provider: openai\nmodel: gpt-4o\nmax_iterations: 10\nauto_approve: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.True(t, cfg.AutoApprove)
	// Unset keys keep their defaults.
	assert.Equal(t, 50, cfg.SubagentMaxIterations)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORA_API_KEY", "sk-test")
	t.Setenv("CORA_MAX_ITERATIONS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 7, cfg.MaxIterations)
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORA_PROVIDER", "mystery")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadRejectsBadIterationBound(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORA_MAX_ITERATIONS", "0")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")
}

func TestLoadMissingExplicitFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
