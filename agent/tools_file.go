package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// ReadFileArgs are the read_file tool's arguments.
type ReadFileArgs struct {
	FilePath string `json:"file_path" validate:"required"`
	Offset   int    `json:"offset" validate:"gte=0"`
	Limit    int    `json:"limit" validate:"gte=0"`
}

// NewReadFileTool builds the read_file tool.
func NewReadFileTool() Tool {
	return Tool{
		Name: "read_file",
		Description: "Read a file from the filesystem. Output is numbered by line. " +
			"Use offset (1-based line) and limit to read a slice of a large file.",
		Effect: EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to read",
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "1-based line number to start reading from",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of lines to read",
				},
			},
			"required": []string{"file_path"},
		},
		NewArgs: func() any { return &ReadFileArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*ReadFileArgs)
			out, err := env.ReadFile(a.FilePath, a.Offset, a.Limit)
			if err != nil {
				return "", err
			}
			if out == "" {
				return "(empty file)", nil
			}
			return out, nil
		},
	}
}

// WriteFileArgs are the write_file tool's arguments.
type WriteFileArgs struct {
	FilePath string `json:"file_path" validate:"required"`
	Content  string `json:"content"`
}

// NewWriteFileTool builds the write_file tool.
func NewWriteFileTool() Tool {
	return Tool{
		Name: "write_file",
		Description: "Write content to a file, creating it (and parent directories) if needed " +
			"and replacing any existing content.",
		Effect: EffectMutating,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to write",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Full content to write",
				},
			},
			"required": []string{"file_path", "content"},
		},
		NewArgs: func() any { return &WriteFileArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*WriteFileArgs)
			if err := env.WriteFile(a.FilePath, a.Content); err != nil {
				return "", err
			}
			lines := strings.Count(a.Content, "\n") + 1
			return fmt.Sprintf("Wrote %d bytes (%d lines) to %s", len(a.Content), lines, a.FilePath), nil
		},
	}
}

// EditFileArgs are the edit_file tool's arguments.
type EditFileArgs struct {
	FilePath   string `json:"file_path" validate:"required"`
	OldString  string `json:"old_string" validate:"required"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// applyEdit performs one string replacement on content. Without replace_all
// the old string must occur exactly once.
func applyEdit(content, oldString, newString string, replaceAll bool) (string, error) {
	if oldString == newString {
		return "", fmt.Errorf("old_string and new_string are identical")
	}
	count := strings.Count(content, oldString)
	switch {
	case count == 0:
		return "", fmt.Errorf("old_string not found in file")
	case count > 1 && !replaceAll:
		return "", fmt.Errorf("old_string occurs %d times; provide more context to make it unique, or set replace_all", count)
	}
	if replaceAll {
		return strings.ReplaceAll(content, oldString, newString), nil
	}
	return strings.Replace(content, oldString, newString, 1), nil
}

// NewEditFileTool builds the edit_file tool.
func NewEditFileTool() Tool {
	return Tool{
		Name: "edit_file",
		Description: "Replace an exact string in a file. The old string must be unique in the file " +
			"unless replace_all is set.",
		Effect: EffectMutating,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to modify",
				},
				"old_string": map[string]interface{}{
					"type":        "string",
					"description": "Exact text to replace",
				},
				"new_string": map[string]interface{}{
					"type":        "string",
					"description": "Replacement text",
				},
				"replace_all": map[string]interface{}{
					"type":        "boolean",
					"description": "Replace every occurrence instead of requiring uniqueness",
				},
			},
			"required": []string{"file_path", "old_string", "new_string"},
		},
		NewArgs: func() any { return &EditFileArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*EditFileArgs)
			content, err := env.ReadFileRaw(a.FilePath)
			if err != nil {
				return "", err
			}
			updated, err := applyEdit(content, a.OldString, a.NewString, a.ReplaceAll)
			if err != nil {
				return "", fmt.Errorf("%s: %w", a.FilePath, err)
			}
			if err := env.WriteFile(a.FilePath, updated); err != nil {
				return "", err
			}
			return fmt.Sprintf("Edited %s", a.FilePath), nil
		},
	}
}

// EditOp is one replacement within a multiedit call.
type EditOp struct {
	OldString  string `json:"old_string" validate:"required"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all"`
}

// MultiEditArgs are the multiedit tool's arguments.
type MultiEditArgs struct {
	FilePath string   `json:"file_path" validate:"required"`
	Edits    []EditOp `json:"edits" validate:"required,min=1,dive"`
}

// NewMultiEditTool builds the multiedit tool. Edits apply in order against
// the running result; the file is written only if every edit succeeds.
func NewMultiEditTool() Tool {
	return Tool{
		Name: "multiedit",
		Description: "Apply several exact string replacements to one file in a single atomic operation. " +
			"Edits apply in order, each against the result of the previous; if any edit fails, none are written.",
		Effect: EffectMutating,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path to the file to modify",
				},
				"edits": map[string]interface{}{
					"type":        "array",
					"description": "Ordered list of replacements",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"old_string":  map[string]interface{}{"type": "string"},
							"new_string":  map[string]interface{}{"type": "string"},
							"replace_all": map[string]interface{}{"type": "boolean"},
						},
						"required": []string{"old_string", "new_string"},
					},
				},
			},
			"required": []string{"file_path", "edits"},
		},
		NewArgs: func() any { return &MultiEditArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*MultiEditArgs)
			content, err := env.ReadFileRaw(a.FilePath)
			if err != nil {
				return "", err
			}
			updated := content
			for i, edit := range a.Edits {
				updated, err = applyEdit(updated, edit.OldString, edit.NewString, edit.ReplaceAll)
				if err != nil {
					return "", fmt.Errorf("%s: edit %d of %d failed: %w", a.FilePath, i+1, len(a.Edits), err)
				}
			}
			if err := env.WriteFile(a.FilePath, updated); err != nil {
				return "", err
			}
			return fmt.Sprintf("Applied %d edits to %s", len(a.Edits), a.FilePath), nil
		},
	}
}

// LsArgs are the ls tool's arguments.
type LsArgs struct {
	Path   string   `json:"path" validate:"required"`
	Ignore []string `json:"ignore"`
}

// NewLsTool builds the ls tool.
func NewLsTool() Tool {
	return Tool{
		Name:        "ls",
		Description: "List the entries of a directory, directories first. Directories are suffixed with a slash.",
		Effect:      EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Directory to list",
				},
				"ignore": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Glob patterns for entries to skip",
				},
			},
			"required": []string{"path"},
		},
		NewArgs: func() any { return &LsArgs{} },
		Run: func(_ context.Context, args any, env Environment) (string, error) {
			a := args.(*LsArgs)
			entries, err := env.ListDirectory(a.Path)
			if err != nil {
				return "", err
			}
			var dirs, files []string
			for _, entry := range entries {
				if ignored(entry.Name, a.Ignore) {
					continue
				}
				if entry.IsDir {
					dirs = append(dirs, entry.Name+"/")
				} else {
					files = append(files, entry.Name)
				}
			}
			if len(dirs)+len(files) == 0 {
				return "(empty directory)", nil
			}
			var sb strings.Builder
			for _, name := range append(dirs, files...) {
				fmt.Fprintf(&sb, "%s\n", name)
			}
			return sb.String(), nil
		},
	}
}

func ignored(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
