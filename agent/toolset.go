package agent

import "go.uber.org/zap"

// CoreTools builds every built-in tool except task, which needs a
// dispatcher.
func CoreTools(cfg Config, searcher Searcher) []Tool {
	return []Tool{
		NewReadFileTool(),
		NewWriteFileTool(),
		NewEditFileTool(),
		NewMultiEditTool(),
		NewLsTool(),
		NewGrepTool(),
		NewGlobTool(),
		NewBashTool(cfg),
		NewTodoWriteTool(),
		NewWebFetchTool(),
		NewWebSearchTool(searcher),
	}
}

// NewAgent wires the full system: tool registry, capability map, delegation
// dispatcher, and the main loop. The returned loop owns nothing shared; call
// Run per user turn with a conversation the caller keeps across turns.
func NewAgent(backend Backend, env Environment, cfg Config, approver Approver, searcher Searcher, logger *zap.Logger, emitter *EventEmitter) (*Loop, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dispatcher := NewDispatcher(backend, env, cfg, approver, logger, emitter)

	registry, err := NewRegistry(append(CoreTools(cfg, searcher), NewTaskTool(dispatcher))...)
	if err != nil {
		return nil, err
	}
	caps, err := NewCapabilityMap(registry, DefaultRoleTools())
	if err != nil {
		return nil, err
	}
	dispatcher.Bind(caps)

	return NewLoop(RoleMain, caps, backend, env, cfg,
		WithApprover(approver),
		WithLogger(logger),
		WithEmitter(emitter),
	), nil
}
