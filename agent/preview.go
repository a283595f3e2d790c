package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const previewContextLines = 3

// BuildPreview renders a human-readable preview of what a mutating tool call
// would do, for the approval gate. It reads current state but never writes;
// a preview that cannot be computed degrades to the call's arguments.
func BuildPreview(toolName string, args any, env Environment) string {
	switch a := args.(type) {
	case *WriteFileArgs:
		return previewWrite(a, env)
	case *EditFileArgs:
		return previewEdit(a, env)
	case *MultiEditArgs:
		return previewMultiEdit(a, env)
	default:
		raw, err := json.MarshalIndent(args, "", "  ")
		if err != nil {
			return fmt.Sprintf("%s %+v", toolName, args)
		}
		return fmt.Sprintf("%s %s", toolName, raw)
	}
}

func previewWrite(a *WriteFileArgs, env Environment) string {
	lines := strings.Count(a.Content, "\n") + 1

	if env != nil && env.FileExists(a.FilePath) {
		old, err := env.ReadFileRaw(a.FilePath)
		if err == nil {
			header := fmt.Sprintf("Overwrite %s (%d bytes, %d lines):\n", a.FilePath, len(a.Content), lines)
			return header + unifiedDiff(a.FilePath, old, a.Content)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Create %s (%d bytes, %d lines):\n", a.FilePath, len(a.Content), lines)
	shown := strings.Split(a.Content, "\n")
	const maxShown = 20
	truncated := false
	if len(shown) > maxShown {
		shown = shown[:maxShown]
		truncated = true
	}
	for _, line := range shown {
		sb.WriteString("+ " + line + "\n")
	}
	if truncated {
		fmt.Fprintf(&sb, "... (%d more lines)\n", lines-maxShown)
	}
	return sb.String()
}

func previewEdit(a *EditFileArgs, env Environment) string {
	if env != nil {
		if old, err := env.ReadFileRaw(a.FilePath); err == nil {
			if updated, err := applyEdit(old, a.OldString, a.NewString, a.ReplaceAll); err == nil {
				return fmt.Sprintf("Edit %s:\n%s", a.FilePath, unifiedDiff(a.FilePath, old, updated))
			}
		}
	}
	return fmt.Sprintf("Edit %s:\n%s", a.FilePath, unifiedDiff(a.FilePath, a.OldString, a.NewString))
}

func previewMultiEdit(a *MultiEditArgs, env Environment) string {
	if env != nil {
		if old, err := env.ReadFileRaw(a.FilePath); err == nil {
			updated := old
			var applyErr error
			for _, edit := range a.Edits {
				updated, applyErr = applyEdit(updated, edit.OldString, edit.NewString, edit.ReplaceAll)
				if applyErr != nil {
					break
				}
			}
			if applyErr == nil {
				return fmt.Sprintf("Apply %d edits to %s:\n%s", len(a.Edits), a.FilePath, unifiedDiff(a.FilePath, old, updated))
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Apply %d edits to %s:\n", len(a.Edits), a.FilePath)
	for i, edit := range a.Edits {
		fmt.Fprintf(&sb, "edit %d:\n%s", i+1, unifiedDiff(a.FilePath, edit.OldString, edit.NewString))
	}
	return sb.String()
}

func unifiedDiff(path, before, after string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path,
		ToFile:   path,
		Context:  previewContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || text == "" {
		return "(no changes)\n"
	}
	return text
}
