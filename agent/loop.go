package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cora/llm"
)

// Config holds per-loop tunables. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// MaxIterations bounds tool-execution rounds per run. Exhausting it
	// surfaces a RecursionExceededError.
	MaxIterations int
	// SubagentMaxIterations is the bound given to delegated sub-loops.
	SubagentMaxIterations int

	Model       string
	Provider    string
	Temperature *float64
	MaxTokens   *int

	// DefaultCommandTimeoutMs applies to bash calls with no timeout argument.
	DefaultCommandTimeoutMs int
	// MaxCommandTimeoutMs caps any requested bash timeout.
	MaxCommandTimeoutMs int

	// ToolCharLimits and ToolLineLimits override the stock output truncation
	// limits per tool name.
	ToolCharLimits map[string]int
	ToolLineLimits map[string]int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations:           25,
		SubagentMaxIterations:   50,
		DefaultCommandTimeoutMs: 120000,
		MaxCommandTimeoutMs:     600000,
	}
}

// Backend produces model completions. *llm.Client satisfies this.
type Backend interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// loopState is the phase of a run's state machine.
type loopState int

const (
	stateAwaitModel loopState = iota
	stateRoute
	stateExecuteTools
	stateTerminated
)

// Result is the outcome of a completed run.
type Result struct {
	// FinalText is the terminating assistant message.
	FinalText string
	// Iterations counts tool-execution rounds consumed.
	Iterations int
	Usage      llm.Usage
}

// Loop drives one agent's conversation: call the model, route on the
// response, execute requested tools, repeat until the model stops calling
// tools or the iteration bound is hit. Main and delegated agents are the
// same machine differing only in role, bound, and conversation.
type Loop struct {
	id       string
	role     Role
	caps     *CapabilityMap
	backend  Backend
	env      Environment
	cfg      Config
	approver Approver
	logger   *zap.Logger
	emitter  *EventEmitter
}

// LoopOption customizes a Loop.
type LoopOption func(*Loop)

// WithApprover installs the approval gate for mutating tool calls. Defaults
// to AutoApprover.
func WithApprover(a Approver) LoopOption {
	return func(l *Loop) {
		if a != nil {
			l.approver = a
		}
	}
}

// WithLogger installs a structured logger.
func WithLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithEmitter installs an event emitter shared with the host application.
func WithEmitter(e *EventEmitter) LoopOption {
	return func(l *Loop) { l.emitter = e }
}

// NewLoop creates a Loop for one role. The capability map fixes which tools
// the role may call; cfg.MaxIterations bounds each Run.
func NewLoop(role Role, caps *CapabilityMap, backend Backend, env Environment, cfg Config, opts ...LoopOption) *Loop {
	l := &Loop{
		id:       uuid.NewString()[:8],
		role:     role,
		caps:     caps,
		backend:  backend,
		env:      env,
		cfg:      cfg,
		approver: AutoApprover{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(zap.String("loop_id", l.id), zap.String("role", string(role)))
	return l
}

// ID returns the loop's short identifier.
func (l *Loop) ID() string { return l.id }

// Role returns the loop's role.
func (l *Loop) Role() Role { return l.role }

func (l *Loop) emit(kind EventKind, data map[string]interface{}) {
	if l.emitter != nil {
		l.emitter.Emit(l.id, l.role, kind, data)
	}
}

// Run executes one turn: from the conversation's latest user message to the
// model's terminating text response. The conversation must end ready for a
// model call (at least one message, no unanswered tool calls).
//
// Recovered failures (bad arguments, denied capability, rejected approval,
// tool errors) become error tool results and the run continues. A backend
// failure aborts the turn with BackendError; the conversation is unchanged
// since the last completed round. Exhausting the iteration bound returns
// RecursionExceededError with the transcript intact.
//
// Cancellation synthesizes a cancellation-marker result for every unanswered
// tool call before returning, so the conversation stays resumable.
func (l *Loop) Run(ctx context.Context, conv *Conversation) (*Result, error) {
	if conv == nil || conv.Len() == 0 {
		return nil, errors.New("run requires a conversation with at least one message")
	}

	l.emit(EventTurnStart, nil)
	l.logger.Debug("turn start", zap.Int("messages", conv.Len()))

	iterations := 0
	var usage llm.Usage
	var calls []ToolCall
	state := stateAwaitModel

	for {
		if err := ctx.Err(); err != nil {
			l.cancelPending(conv)
			l.emit(EventTurnEnd, map[string]interface{}{"cancelled": true})
			return nil, err
		}

		switch state {
		case stateAwaitModel:
			if iterations >= l.cfg.MaxIterations {
				l.logger.Warn("iteration limit reached", zap.Int("limit", l.cfg.MaxIterations))
				l.emit(EventIterationLimit, map[string]interface{}{"limit": l.cfg.MaxIterations})
				return nil, &RecursionExceededError{Role: l.role, Limit: l.cfg.MaxIterations}
			}

			l.emit(EventModelCallStart, map[string]interface{}{"iteration": iterations})
			resp, err := l.backend.Complete(ctx, l.buildRequest(conv))
			if err != nil {
				if ctx.Err() != nil {
					l.cancelPending(conv)
					l.emit(EventTurnEnd, map[string]interface{}{"cancelled": true})
					return nil, ctx.Err()
				}
				l.logger.Error("model call failed", zap.Error(err))
				l.emit(EventError, map[string]interface{}{"error": err.Error()})
				return nil, &BackendError{Err: err}
			}
			usage = usage.Add(resp.Usage)
			calls = fromLLMToolCalls(resp.ToolCalls())
			conv.Append(NewAssistantMessage(resp.Text(), calls))
			l.emit(EventModelCallEnd, map[string]interface{}{
				"tool_calls": len(calls),
				"has_text":   resp.Text() != "",
			})
			state = stateRoute

		case stateRoute:
			if len(calls) > 0 {
				state = stateExecuteTools
			} else {
				state = stateTerminated
			}

		case stateExecuteTools:
			iterations++
			conv.Append(l.executeToolCalls(ctx, calls)...)
			state = stateAwaitModel

		case stateTerminated:
			last, _ := conv.LastAssistant()
			l.logger.Debug("turn end", zap.Int("iterations", iterations))
			l.emit(EventTurnEnd, map[string]interface{}{"iterations": iterations})
			return &Result{FinalText: last.Content, Iterations: iterations, Usage: usage}, nil
		}
	}
}

// buildRequest assembles the backend request: role system prompt, full
// transcript, and the role's tool definitions.
func (l *Loop) buildRequest(conv *Conversation) llm.Request {
	messages := append([]llm.Message{llm.SystemMessage(SystemPrompt(l.role, l.env))}, conv.toLLMMessages()...)
	return llm.Request{
		Model:       l.cfg.Model,
		Provider:    l.cfg.Provider,
		Messages:    messages,
		ToolDefs:    l.caps.Definitions(l.role),
		Temperature: l.cfg.Temperature,
		MaxTokens:   l.cfg.MaxTokens,
	}
}

// executeToolCalls produces exactly one result per call, at the call's index.
// Parallel-capable calls (delegations) start concurrently up front; all other
// calls run in listed order. Every failure mode is folded into an error
// result so the conversation never loses a call.
func (l *Loop) executeToolCalls(ctx context.Context, calls []ToolCall) []Message {
	results := make([]Message, len(calls))

	parallel := make([]bool, len(calls))
	for i, call := range calls {
		if tool, err := l.caps.Resolve(l.role, call.Name); err == nil && tool.Parallel {
			parallel[i] = true
		}
	}

	var g errgroup.Group
	for i := range calls {
		if !parallel[i] {
			continue
		}
		g.Go(func() error {
			results[i] = l.executeOne(ctx, calls[i])
			return nil
		})
	}
	for i := range calls {
		if parallel[i] {
			continue
		}
		results[i] = l.executeOne(ctx, calls[i])
	}
	_ = g.Wait()

	return results
}

// executeOne resolves, validates, gates, and runs a single tool call,
// returning its result message.
func (l *Loop) executeOne(ctx context.Context, call ToolCall) Message {
	if ctx.Err() != nil {
		return NewToolResultMessage(call.ID, call.Name, CancellationMarker, true)
	}

	tool, err := l.caps.Resolve(l.role, call.Name)
	if err != nil {
		l.logger.Warn("capability denied", zap.String("tool", call.Name))
		return NewToolResultMessage(call.ID, call.Name, "Error: "+err.Error(), true)
	}

	args, err := tool.DecodeArgs(call.Arguments)
	if err != nil {
		l.logger.Warn("schema violation", zap.String("tool", call.Name), zap.Error(err))
		return NewToolResultMessage(call.ID, call.Name, "Error: "+err.Error(), true)
	}

	if tool.Effect == EffectMutating {
		if msg, blocked := l.gate(ctx, tool, call, args); blocked {
			return msg
		}
	}

	l.emit(EventToolCallStart, map[string]interface{}{"tool": call.Name, "call_id": call.ID})
	l.logger.Debug("tool call", zap.String("tool", call.Name), zap.String("call_id", call.ID))

	output, err := tool.Run(ctx, args, l.env)
	if err != nil {
		if ctx.Err() != nil {
			return NewToolResultMessage(call.ID, call.Name, CancellationMarker, true)
		}
		l.logger.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		l.emit(EventToolCallEnd, map[string]interface{}{"tool": call.Name, "call_id": call.ID, "error": true})
		return NewToolResultMessage(call.ID, call.Name, fmt.Sprintf("Error executing tool %s: %v", call.Name, err), true)
	}

	output = TruncateToolOutput(output, call.Name, l.cfg.ToolCharLimits, l.cfg.ToolLineLimits)
	l.emit(EventToolCallEnd, map[string]interface{}{"tool": call.Name, "call_id": call.ID, "error": false})
	return NewToolResultMessage(call.ID, call.Name, output, false)
}

// gate runs the approval decision for a mutating call. Returns the result
// message and true when execution must not proceed.
func (l *Loop) gate(ctx context.Context, tool *Tool, call ToolCall, args any) (Message, bool) {
	req := ApprovalRequest{
		Tool:      tool.Name,
		Arguments: call.Arguments,
		Preview:   BuildPreview(tool.Name, args, l.env),
	}
	l.emit(EventApprovalRequested, map[string]interface{}{"tool": tool.Name, "call_id": call.ID})

	decision, err := l.approver.Approve(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return NewToolResultMessage(call.ID, call.Name, CancellationMarker, true), true
		}
		return NewToolResultMessage(call.ID, call.Name, fmt.Sprintf("Error during approval: %v", err), true), true
	}

	l.emit(EventApprovalDecided, map[string]interface{}{"tool": tool.Name, "call_id": call.ID, "decision": string(decision)})
	if decision != Approved {
		l.logger.Info("tool call rejected", zap.String("tool", tool.Name))
		return NewToolResultMessage(call.ID, call.Name, RejectionMarker, true), true
	}
	return Message{}, false
}

// cancelPending answers the latest assistant message's unanswered tool calls
// with cancellation markers.
func (l *Loop) cancelPending(conv *Conversation) {
	for _, call := range conv.PendingToolCalls() {
		conv.Append(NewToolResultMessage(call.ID, call.Name, CancellationMarker, true))
	}
}

func fromLLMToolCalls(calls []llm.ToolCallData) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		out[i] = ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
	}
	return out
}
