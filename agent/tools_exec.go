package agent

import (
	"context"
	"fmt"
	"strings"
)

// BashArgs are the bash tool's arguments.
type BashArgs struct {
	Command     string `json:"command" validate:"required"`
	TimeoutMs   int    `json:"timeout_ms" validate:"gte=0"`
	Description string `json:"description"`
}

// NewBashTool builds the bash tool. The default and maximum timeout come
// from cfg; a requested timeout above the maximum is clamped.
func NewBashTool(cfg Config) Tool {
	return Tool{
		Name: "bash",
		Description: "Run a shell command in the working directory and return its combined output. " +
			"Long-running commands are killed at the timeout.",
		Effect: EffectExecution,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"command": map[string]interface{}{
					"type":        "string",
					"description": "The shell command to run",
				},
				"timeout_ms": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Timeout in milliseconds (default %d, max %d)", cfg.DefaultCommandTimeoutMs, cfg.MaxCommandTimeoutMs),
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "A short description of what the command does",
				},
			},
			"required": []string{"command"},
		},
		NewArgs: func() any { return &BashArgs{} },
		Run: func(ctx context.Context, args any, env Environment) (string, error) {
			a := args.(*BashArgs)

			timeout := a.TimeoutMs
			if timeout == 0 {
				timeout = cfg.DefaultCommandTimeoutMs
			}
			if cfg.MaxCommandTimeoutMs > 0 && timeout > cfg.MaxCommandTimeoutMs {
				timeout = cfg.MaxCommandTimeoutMs
			}

			result, err := env.ExecCommand(ctx, a.Command, timeout)
			if err != nil {
				return "", err
			}

			output := result.Output()
			if result.TimedOut {
				return "", fmt.Errorf("command timed out after %dms\n%s", timeout, output)
			}
			if result.ExitCode != 0 {
				if strings.TrimSpace(output) == "" {
					return "", fmt.Errorf("command exited with status %d", result.ExitCode)
				}
				return "", fmt.Errorf("command exited with status %d\n%s", result.ExitCode, output)
			}
			if strings.TrimSpace(output) == "" {
				return "(no output)", nil
			}
			return output, nil
		},
	}
}
