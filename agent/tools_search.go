package agent

import (
	"context"
	"strings"
)

// GrepArgs are the grep tool's arguments.
type GrepArgs struct {
	Pattern         string `json:"pattern" validate:"required"`
	Path            string `json:"path"`
	Glob            string `json:"glob"`
	CaseInsensitive bool   `json:"case_insensitive"`
	MaxResults      int    `json:"max_results" validate:"gte=0"`
}

// NewGrepTool builds the grep tool.
func NewGrepTool() Tool {
	return Tool{
		Name: "grep",
		Description: "Search file contents with a regular expression. " +
			"Results are path:line:text lines. Defaults to the working directory.",
		Effect: EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Regular expression to search for",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "File or directory to search in",
				},
				"glob": map[string]interface{}{
					"type":        "string",
					"description": "Glob filter for files to search, e.g. *.go",
				},
				"case_insensitive": map[string]interface{}{
					"type":        "boolean",
					"description": "Match case-insensitively",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum matches per file",
				},
			},
			"required": []string{"pattern"},
		},
		NewArgs: func() any { return &GrepArgs{} },
		Run: func(ctx context.Context, args any, env Environment) (string, error) {
			a := args.(*GrepArgs)
			out, err := env.Grep(ctx, a.Pattern, a.Path, GrepOptions{
				GlobFilter:      a.Glob,
				CaseInsensitive: a.CaseInsensitive,
				MaxResults:      a.MaxResults,
			})
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(out) == "" {
				return "No matches found.", nil
			}
			return out, nil
		},
	}
}

// GlobArgs are the glob tool's arguments.
type GlobArgs struct {
	Pattern string `json:"pattern" validate:"required"`
	Path    string `json:"path"`
}

// NewGlobTool builds the glob tool.
func NewGlobTool() Tool {
	return Tool{
		Name:        "glob",
		Description: "Find files by name pattern, e.g. *.go or **/*_test.go. Defaults to the working directory.",
		Effect:      EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"pattern": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern to match file paths against",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory to search in",
				},
			},
			"required": []string{"pattern"},
		},
		NewArgs: func() any { return &GlobArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*GlobArgs)
			matches, err := env.Glob(a.Pattern, a.Path)
			if err != nil {
				return "", err
			}
			if len(matches) == 0 {
				return "No files matched.", nil
			}
			return strings.Join(matches, "\n"), nil
		},
	}
}
