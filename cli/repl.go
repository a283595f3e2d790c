package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"

	"cora/agent"
)

// repl is the interactive session: read a line, run a turn, render the
// answer, repeat. One conversation persists across turns until /clear.
// Input comes through the app's shared line reader so the approver and the
// prompt never fight over stdin.
type repl struct {
	app      *App
	in       *lineReader
	out      io.Writer
	renderer *renderer
}

func newREPL(app *App) *repl {
	r := &repl{
		app:      app,
		in:       app.input,
		out:      os.Stdout,
		renderer: newRenderer(os.Stdout),
	}
	r.renderer.watch(app.emitter.Events())
	return r
}

func (r *repl) run(ctx context.Context) error {
	// Drain pending progress lines before the prompt returns.
	defer func() {
		r.app.emitter.Close()
		r.renderer.wait()
	}()

	r.printWelcome()

	for {
		color.New(color.FgBlue, color.Bold).Fprint(r.out, "> ")
		line, err := r.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye.")
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := r.handleCommand(input); quit {
				return nil
			}
			continue
		}

		r.runTurn(ctx, input)
	}
}

// runTurn executes one agent turn. Ctrl-C cancels the turn, not the REPL;
// the conversation stays resumable either way.
func (r *repl) runTurn(parent context.Context, input string) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	r.app.conv.Append(agent.NewUserMessage(input))

	result, err := r.app.loop.Run(ctx, r.app.conv)
	switch {
	case err == nil:
		r.renderer.printAnswer(result.FinalText)
	case errors.Is(err, context.Canceled):
		color.New(color.FgYellow).Fprintln(r.out, "\nTurn cancelled.")
	default:
		var recErr *agent.RecursionExceededError
		if errors.As(err, &recErr) {
			color.New(color.FgYellow).Fprintf(r.out,
				"Stopped after %d iterations without finishing. Ask a narrower question or continue from here.\n",
				recErr.Limit)
			return
		}
		color.New(color.FgRed).Fprintf(r.out, "Error: %v\n", err)
	}
}

// handleCommand processes a slash command. Returns true to exit the REPL.
func (r *repl) handleCommand(input string) bool {
	cmd := strings.Fields(input)[0]
	switch cmd {
	case "/exit", "/quit":
		fmt.Fprintln(r.out, "Goodbye.")
		return true
	case "/help":
		r.printHelp()
	case "/clear":
		r.app.conv.Clear()
		fmt.Fprintln(r.out, "Conversation cleared.")
	case "/history":
		r.printHistory()
	case "/list-agents":
		r.printAgents()
	case "/auto-approve":
		next := !r.app.approver.Auto()
		r.app.approver.SetAuto(next)
		if next {
			fmt.Fprintln(r.out, "Auto-approve is on: mutating tools run without prompting.")
		} else {
			fmt.Fprintln(r.out, "Auto-approve is off.")
		}
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Try /help.\n", cmd)
	}
	return false
}

func (r *repl) printWelcome() {
	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "cora %s", Version)
	fmt.Fprintf(r.out, " | %s | %s\n", r.app.cfg.Provider, r.app.env.WorkingDirectory())
	fmt.Fprintln(r.out, "Type a request, or /help for commands. Ctrl-C cancels a turn, Ctrl-D exits.")
}

func (r *repl) printHelp() {
	fmt.Fprint(r.out, `Commands:
  /help          Show this help
  /clear         Start a fresh conversation
  /history       Show the conversation so far
  /list-agents   Show available sub-agent types
  /auto-approve  Toggle automatic approval of mutating tools
  /exit, /quit   Leave the session
`)
}

func (r *repl) printHistory() {
	msgs := r.app.conv.Messages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, "No messages yet.")
		return
	}
	for _, msg := range msgs {
		switch msg.Role {
		case agent.RoleUserMessage:
			color.New(color.FgBlue).Fprintf(r.out, "user: %s\n", msg.Content)
		case agent.RoleAssistantMessage:
			text := msg.Content
			if text == "" && len(msg.ToolCalls) > 0 {
				names := make([]string, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					names[i] = tc.Name
				}
				text = "(tool calls: " + strings.Join(names, ", ") + ")"
			}
			color.New(color.FgGreen).Fprintf(r.out, "assistant: %s\n", text)
		case agent.RoleToolMessage:
			color.New(color.Faint).Fprintf(r.out, "%s -> %d chars\n", msg.ToolName, len(msg.Content))
		}
	}
}

func (r *repl) printAgents() {
	for _, st := range agent.SubagentTypes() {
		color.New(color.Bold).Fprintf(r.out, "%s\n", st)
		fmt.Fprintf(r.out, "  %s\n", agent.SubagentDescription(st))
	}
}
