// Package agent implements cora's coding-assistant core: a bounded
// iterative loop that pairs a model backend with developer tools.
//
// Each Loop drives one conversation through a fixed cycle of model call,
// response routing, and tool execution until the model answers without
// requesting tools or the iteration bound is hit. Mutating tools pass
// through an approval gate before running, and the task tool delegates
// self-contained work to isolated sub-agent loops with restricted
// capability sets.
//
// # Architecture
//
//   - Loop: The state machine driving one agent's conversation.
//   - Conversation: The append-only transcript a loop owns exclusively.
//   - Registry / CapabilityMap: Immutable tool table and the per-role
//     subsets with side-effect invariants enforced at construction.
//   - Approver: The gate deciding pending mutating tool calls.
//   - Dispatcher: Spawns isolated sub-agent loops for task delegations.
//   - Environment: Abstraction for where tools run.
//   - EventEmitter: Typed event stream for host application integration.
//
// # Quick Start
//
//	env := agent.NewLocalEnvironment("/path/to/project")
//	loop, err := agent.NewAgent(client, env, agent.DefaultConfig(), nil, nil, logger, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	conv := agent.NewConversation()
//	conv.Append(agent.NewUserMessage("Create a hello.py file"))
//	result, err := loop.Run(ctx, conv)
package agent
