package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// subagentRoles maps the task tool's subagent_type argument to a role.
var subagentRoles = map[string]Role{
	"general-purpose": RoleResearch,
	"code-writer":     RoleWriter,
	"project-init":    RoleProjectInit,
}

// SubagentTypes returns the accepted subagent_type values.
func SubagentTypes() []string {
	return []string{"general-purpose", "code-writer", "project-init"}
}

// SubagentDescription documents a delegate type for help output and the task
// tool description.
func SubagentDescription(subagentType string) string {
	switch subagentType {
	case "general-purpose":
		return "Researches questions and analyzes code. Read-only: cannot modify files or run commands."
	case "code-writer":
		return "Writes and edits code. Can modify files but cannot run commands."
	case "project-init":
		return "Analyzes a codebase and writes project guideline documentation."
	default:
		return ""
	}
}

// DelegationRequest describes one sub-agent task.
type DelegationRequest struct {
	Description string
	Prompt      string
	Role        Role
}

// Dispatcher spawns an isolated sub-agent loop per delegation. Each
// delegation gets a fresh conversation and its own iteration bound;
// concurrent delegations never share state beyond the read-only wiring here.
type Dispatcher struct {
	backend  Backend
	env      Environment
	cfg      Config
	approver Approver
	logger   *zap.Logger
	emitter  *EventEmitter
	caps     *CapabilityMap
}

// NewDispatcher creates a Dispatcher. Bind must be called with the finished
// capability map before the first Dispatch; the map is built after the
// dispatcher because the task tool closes over the dispatcher.
func NewDispatcher(backend Backend, env Environment, cfg Config, approver Approver, logger *zap.Logger, emitter *EventEmitter) *Dispatcher {
	if approver == nil {
		approver = AutoApprover{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		backend:  backend,
		env:      env,
		cfg:      cfg,
		approver: approver,
		logger:   logger,
		emitter:  emitter,
	}
}

// Bind installs the capability map used for sub-agent loops.
func (d *Dispatcher) Bind(caps *CapabilityMap) {
	d.caps = caps
}

// Dispatch runs one delegation to completion and returns the sub-agent's
// final report. Failures never propagate: a crashed, failed, or
// bound-exhausted sub-agent yields an explanatory result string, and the
// parent conversation is untouched either way.
func (d *Dispatcher) Dispatch(ctx context.Context, req DelegationRequest) (result string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("sub-agent panicked", zap.Any("panic", r))
			result = fmt.Sprintf("Error executing sub-agent task: panic: %v", r)
		}
	}()

	if d.caps == nil {
		return "Error executing sub-agent task: dispatcher not bound to a capability map"
	}

	subCfg := d.cfg
	subCfg.MaxIterations = d.cfg.SubagentMaxIterations

	sub := NewLoop(req.Role, d.caps, d.backend, d.env, subCfg,
		WithApprover(d.approver),
		WithLogger(d.logger),
		WithEmitter(d.emitter),
	)

	if d.emitter != nil {
		d.emitter.Emit(sub.ID(), req.Role, EventDelegationStart, map[string]interface{}{
			"description": req.Description,
		})
	}
	d.logger.Info("delegation start",
		zap.String("sub_loop", sub.ID()),
		zap.String("sub_role", string(req.Role)),
		zap.String("description", req.Description),
	)

	conv := NewConversation()
	conv.Append(NewUserMessage(delegationPrompt(req)))

	res, err := sub.Run(ctx, conv)

	if d.emitter != nil {
		d.emitter.Emit(sub.ID(), req.Role, EventDelegationEnd, map[string]interface{}{
			"description": req.Description,
			"error":       err != nil,
		})
	}

	var recErr *RecursionExceededError
	switch {
	case errors.As(err, &recErr):
		d.logger.Warn("sub-agent hit iteration bound", zap.Int("limit", recErr.Limit))
		return BroadTaskMessage(recErr.Limit)
	case err != nil:
		d.logger.Warn("sub-agent failed", zap.Error(err))
		return fmt.Sprintf("Error executing sub-agent task: %v", err)
	case strings.TrimSpace(res.FinalText) == "":
		return "Error: sub-agent completed without producing a final report."
	default:
		return res.FinalText
	}
}

func delegationPrompt(req DelegationRequest) string {
	if req.Description == "" {
		return req.Prompt
	}
	return "Task: " + req.Description + "\n\n" + req.Prompt
}

// TaskArgs are the task tool's arguments.
type TaskArgs struct {
	Description  string `json:"description" validate:"required"`
	Prompt       string `json:"prompt" validate:"required"`
	SubagentType string `json:"subagent_type" validate:"required,oneof=general-purpose code-writer project-init"`
}

// NewTaskTool builds the delegation tool backed by d. Marked Parallel: the
// loop starts a batch of task calls concurrently and folds results back in
// call order.
func NewTaskTool(d *Dispatcher) Tool {
	var typeDocs []string
	for _, st := range SubagentTypes() {
		typeDocs = append(typeDocs, fmt.Sprintf("- %s: %s", st, SubagentDescription(st)))
	}
	description := "Delegate a self-contained task to a specialized sub-agent. " +
		"The sub-agent works in isolation with its own conversation and returns a single final report; " +
		"it cannot ask follow-up questions, so the prompt must contain everything it needs. " +
		"Available subagent types:\n" + strings.Join(typeDocs, "\n")

	return Tool{
		Name:        "task",
		Description: description,
		Effect:      EffectReadOnly,
		Parallel:    true,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"description": map[string]interface{}{
					"type":        "string",
					"description": "A short (3-5 word) summary of the task",
				},
				"prompt": map[string]interface{}{
					"type":        "string",
					"description": "The full, self-contained task for the sub-agent to perform",
				},
				"subagent_type": map[string]interface{}{
					"type":        "string",
					"enum":        SubagentTypes(),
					"description": "The type of sub-agent to use",
				},
			},
			"required": []string{"description", "prompt", "subagent_type"},
		},
		NewArgs: func() any { return &TaskArgs{} },
		Run: func(ctx context.Context, args any, _ Environment) (string, error) {
			a := args.(*TaskArgs)
			role, ok := subagentRoles[a.SubagentType]
			if !ok {
				return "", fmt.Errorf("unknown subagent type %q", a.SubagentType)
			}
			return d.Dispatch(ctx, DelegationRequest{
				Description: a.Description,
				Prompt:      a.Prompt,
				Role:        role,
			}), nil
		},
	}
}
