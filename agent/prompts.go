package agent

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

const mainPromptBody = `You are cora, an interactive coding assistant working in the user's repository.

# Working style
- Be concise. Answer directly; skip preamble and summaries the user did not ask for.
- Prefer reading code over guessing. Use grep and glob to locate relevant files before editing.
- Make the smallest change that solves the problem. Follow the conventions already present in the codebase.
- Use the todowrite tool to plan multi-step work and keep exactly one item in progress.
- For self-contained research or implementation subtasks, delegate with the task tool instead of doing everything inline.

# Tool use
- read_file before edit_file; edits require the exact current text.
- Use multiedit when several changes land in one file.
- bash runs in the working directory shown below. Never use it to read or write files when a dedicated tool exists.

# Output
- Report what you did and where, with file paths. Do not restate file contents you just wrote.`

const researchPromptBody = `You are a research sub-agent. You investigate a single task and return one final report.

- You have read-only access: you can read files, list directories, search, and fetch web content, but you cannot modify anything or run commands.
- You get one shot: your final message is returned verbatim to the caller, and you cannot ask follow-up questions.
- Be thorough but focused. Include concrete file paths, line references, and evidence for every claim.`

const writerPromptBody = `You are a code-writing sub-agent. You implement a single, fully specified coding task and return one final report.

- You can read and modify files but cannot run commands; do not claim to have run tests or builds.
- Follow the conventions of the surrounding code.
- Your final message is returned verbatim to the caller: list every file you created or changed and summarize the changes.`

const projectInitPromptBody = `You are a project-analysis sub-agent. You study this repository and write an AGENTS.md guideline document for future coding agents working here.

- Identify the language, build system, test commands, directory layout, and code conventions by reading the repository.
- Write the findings to AGENTS.md in the repository root: short, factual, command-oriented.
- Your final message is returned verbatim to the caller: summarize what you found and what you wrote.`

// projectDocFile is the guideline document the project-init sub-agent writes
// and new sessions read back from the working directory.
const projectDocFile = "AGENTS.md"

// SystemPrompt returns the system prompt for a role, grounded with the
// current working directory, platform, and date. The main role also carries
// the repository's own AGENTS.md guidelines when the file exists.
func SystemPrompt(role Role, env Environment) string {
	var body string
	projectDoc := false
	switch role {
	case RoleResearch:
		body = researchPromptBody
	case RoleWriter:
		body = writerPromptBody
	case RoleProjectInit:
		body = projectInitPromptBody
	default:
		body = mainPromptBody
		projectDoc = true
	}

	workingDir := ""
	if env != nil {
		workingDir = env.WorkingDirectory()
	}

	var sb strings.Builder
	sb.WriteString(body)
	sb.WriteString("\n\n# Environment\n")
	fmt.Fprintf(&sb, "Working directory: %s\n", workingDir)
	fmt.Fprintf(&sb, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&sb, "Date: %s\n", time.Now().Format("2006-01-02"))
	if projectDoc {
		sb.WriteString(projectContext(env))
	}
	return sb.String()
}

// projectContext loads AGENTS.md from the working directory. A missing or
// unreadable file contributes nothing.
func projectContext(env Environment) string {
	if env == nil || !env.FileExists(projectDocFile) {
		return ""
	}
	content, err := env.ReadFileRaw(projectDocFile)
	if err != nil || strings.TrimSpace(content) == "" {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n# Project context (from %s)\n\n", projectDocFile)
	sb.WriteString(strings.TrimSpace(content))
	sb.WriteString("\n\nFollow these repository guidelines and commands when they apply.\n")
	return sb.String()
}
