package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cora/llm"
)

// fakeEnv is an in-memory Environment for tests.
type fakeEnv struct {
	mu    sync.Mutex
	files map[string]string
	execs []string
	// execResult is returned by every ExecCommand call.
	execResult *ExecResult
}

func newFakeEnv() *fakeEnv {
	return &fakeEnv{
		files:      make(map[string]string),
		execResult: &ExecResult{Stdout: "ok", ExitCode: 0},
	}
}

func (e *fakeEnv) ReadFile(path string, offset, limit int) (string, error) {
	raw, err := e.ReadFileRaw(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(raw, "\n")
	start := 0
	if offset > 0 {
		start = offset - 1
	}
	if start >= len(lines) {
		return "", nil
	}
	end := len(lines)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	var sb strings.Builder
	for i := start; i < end; i++ {
		fmt.Fprintf(&sb, "%d | %s\n", i+1, lines[i])
	}
	return sb.String(), nil
}

func (e *fakeEnv) ReadFileRaw(path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	content, ok := e.files[path]
	if !ok {
		return "", fmt.Errorf("read_file: no such file %s", path)
	}
	return content, nil
}

func (e *fakeEnv) WriteFile(path, content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[path] = content
	return nil
}

func (e *fakeEnv) FileExists(path string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.files[path]
	return ok
}

func (e *fakeEnv) ListDirectory(path string) ([]DirEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]bool)
	var entries []DirEntry
	prefix := strings.TrimSuffix(path, "/") + "/"
	if path == "." || path == "" {
		prefix = ""
	}
	for name := range e.files {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			dir := rest[:idx]
			if !seen[dir] {
				seen[dir] = true
				entries = append(entries, DirEntry{Name: dir, IsDir: true})
			}
		} else if !seen[rest] {
			seen[rest] = true
			entries = append(entries, DirEntry{Name: rest, Size: int64(len(e.files[name]))})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (e *fakeEnv) ExecCommand(_ context.Context, command string, _ int) (*ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.execs = append(e.execs, command)
	return e.execResult, nil
}

func (e *fakeEnv) Grep(_ context.Context, pattern, path string, _ GrepOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var sb strings.Builder
	for name, content := range e.files {
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(line, pattern) {
				fmt.Fprintf(&sb, "%s:%d:%s\n", name, i+1, line)
			}
		}
	}
	return sb.String(), nil
}

func (e *fakeEnv) Glob(pattern, _ string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var matches []string
	for name := range e.files {
		if ok, _ := filepath.Match(pattern, filepath.Base(name)); ok {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (e *fakeEnv) WorkingDirectory() string { return "/work" }

// scriptBackend returns scripted responses in order. Safe for concurrent
// use; Complete records each request.
type scriptBackend struct {
	mu        sync.Mutex
	responses []*llm.Response
	err       error
	requests  []llm.Request
	// respond, when set, overrides the script and computes a response per
	// request.
	respond func(req llm.Request) (*llm.Response, error)
}

func (b *scriptBackend) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	if b.respond != nil {
		return b.respond(req)
	}
	if b.err != nil {
		return nil, b.err
	}
	if len(b.responses) == 0 {
		return textResponse("done"), nil
	}
	resp := b.responses[0]
	b.responses = b.responses[1:]
	return resp, nil
}

func (b *scriptBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func textResponse(text string) *llm.Response {
	return &llm.Response{
		Provider: "test",
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: []llm.ContentPart{llm.TextPart(text)},
		},
		FinishReason: llm.FinishReason{Reason: "stop"},
		Usage:        llm.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

func toolCallResponse(calls ...llm.ToolCallData) *llm.Response {
	msg := llm.Message{Role: llm.RoleAssistant}
	for _, c := range calls {
		msg.Content = append(msg.Content, llm.ToolCallPart(c.ID, c.Name, c.Arguments))
	}
	return &llm.Response{
		Provider:     "test",
		Message:      msg,
		FinishReason: llm.FinishReason{Reason: "tool_calls"},
	}
}

func call(id, name string, args any) llm.ToolCallData {
	raw, _ := json.Marshal(args)
	return llm.ToolCallData{ID: id, Name: name, Arguments: raw}
}

// spyTool records invocations and returns a fixed output.
type spyTool struct {
	mu      sync.Mutex
	invoked int
	output  string
}

type spyArgs struct {
	Value string `json:"value"`
}

func (s *spyTool) tool(name string, effect Effect) Tool {
	return Tool{
		Name:        name,
		Description: "spy",
		Effect:      effect,
		Parameters:  map[string]interface{}{"type": "object"},
		NewArgs:     func() any { return &spyArgs{} },
		Run: func(_ context.Context, args any, _ Environment) (string, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.invoked++
			a := args.(*spyArgs)
			if s.output != "" {
				return s.output, nil
			}
			return "spy:" + a.Value, nil
		},
	}
}

func (s *spyTool) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invoked
}

// testCaps builds a capability map where every role may use the given tools,
// subject to the usual effect invariants being satisfied by the caller's
// role choice.
func testCaps(role Role, tools ...Tool) (*CapabilityMap, error) {
	reg, err := NewRegistry(tools...)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return NewCapabilityMap(reg, map[Role][]string{role: names})
}

// rejectingApprover rejects every request.
type rejectingApprover struct{}

func (rejectingApprover) Approve(context.Context, ApprovalRequest) (Decision, error) {
	return Rejected, nil
}
