package agent

import (
	"fmt"
	"strings"
)

// TruncationMode specifies how oversized tool output is cut.
type TruncationMode string

const (
	TruncateHeadTail TruncationMode = "head_tail"
	TruncateTail     TruncationMode = "tail"
)

// Default character limits per tool.
var DefaultToolCharLimits = map[string]int{
	"read_file":  50000,
	"bash":       30000,
	"grep":       20000,
	"glob":       20000,
	"edit_file":  10000,
	"multiedit":  10000,
	"write_file": 1000,
	"webfetch":   50000,
	"websearch":  20000,
	"task":       20000,
}

// Default truncation modes per tool.
var DefaultTruncationModes = map[string]TruncationMode{
	"read_file":  TruncateHeadTail,
	"bash":       TruncateHeadTail,
	"grep":       TruncateTail,
	"glob":       TruncateTail,
	"edit_file":  TruncateTail,
	"multiedit":  TruncateTail,
	"write_file": TruncateTail,
	"webfetch":   TruncateHeadTail,
	"websearch":  TruncateTail,
	"task":       TruncateHeadTail,
}

// Default line limits per tool, applied after character truncation.
var DefaultToolLineLimits = map[string]int{
	"bash": 256,
	"grep": 200,
	"glob": 500,
}

// TruncateOutput applies character-based truncation to output.
func TruncateOutput(output string, maxChars int, mode TruncationMode) string {
	if len(output) <= maxChars {
		return output
	}

	switch mode {
	case TruncateTail:
		removed := len(output) - maxChars
		return fmt.Sprintf("[WARNING: Tool output was truncated. First %d characters were removed. "+
			"Re-run the tool with more targeted parameters to see specific parts.]\n\n",
			removed) +
			output[len(output)-maxChars:]

	default:
		half := maxChars / 2
		removed := len(output) - maxChars
		return output[:half] +
			fmt.Sprintf("\n\n[WARNING: Tool output was truncated. %d characters were removed from the middle. "+
				"Re-run the tool with more targeted parameters to see specific parts.]\n\n",
				removed) +
			output[len(output)-half:]
	}
}

// TruncateLines applies line-based truncation using a head/tail split.
func TruncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}

	headCount := maxLines / 2
	tailCount := maxLines - headCount
	omitted := len(lines) - headCount - tailCount

	return strings.Join(lines[:headCount], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tailCount:], "\n")
}

// TruncateToolOutput applies character-based truncation first, then
// line-based truncation where the tool has a line limit. Per-tool overrides
// take precedence over the stock limits.
func TruncateToolOutput(output string, toolName string, charLimits map[string]int, lineLimits map[string]int) string {
	maxChars, ok := charLimits[toolName]
	if !ok {
		maxChars, ok = DefaultToolCharLimits[toolName]
		if !ok {
			maxChars = 30000
		}
	}

	mode, ok := DefaultTruncationModes[toolName]
	if !ok {
		mode = TruncateHeadTail
	}

	result := TruncateOutput(output, maxChars, mode)

	maxLines := 0
	if lineLimits != nil {
		if ml, ok := lineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines == 0 {
		if ml, ok := DefaultToolLineLimits[toolName]; ok {
			maxLines = ml
		}
	}
	if maxLines > 0 {
		result = TruncateLines(result, maxLines)
	}

	return result
}
