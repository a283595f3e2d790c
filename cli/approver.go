package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"

	"cora/agent"
)

// TerminalApprover asks the user to approve mutating tool calls at the
// terminal, showing a preview of the proposed change first. Concurrent
// delegations can request approval at the same time; the shared lineReader's
// lock keeps each preview paired with its own answer.
type TerminalApprover struct {
	in   *lineReader
	out  io.Writer
	auto atomic.Bool
}

// NewTerminalApprover creates a TerminalApprover. With auto set it approves
// everything silently.
func NewTerminalApprover(in *lineReader, out io.Writer, auto bool) *TerminalApprover {
	a := &TerminalApprover{in: in, out: out}
	a.auto.Store(auto)
	return a
}

// SetAuto toggles auto-approval.
func (a *TerminalApprover) SetAuto(auto bool) { a.auto.Store(auto) }

// Auto reports whether auto-approval is on.
func (a *TerminalApprover) Auto() bool { return a.auto.Load() }

// Approve presents the preview and reads a y/n answer. Anything other than
// an explicit yes rejects.
func (a *TerminalApprover) Approve(ctx context.Context, req agent.ApprovalRequest) (agent.Decision, error) {
	if a.auto.Load() {
		return agent.Approved, nil
	}

	a.in.Lock()
	defer a.in.Unlock()

	fmt.Fprintln(a.out)
	color.New(color.FgYellow, color.Bold).Fprintf(a.out, "Approval required: %s\n", req.Tool)
	printPreview(a.out, req.Preview)

	for {
		if err := ctx.Err(); err != nil {
			return agent.Rejected, err
		}
		color.New(color.FgYellow).Fprint(a.out, "Apply this change? [y/n] ")
		line, err := a.in.Read()
		if err != nil {
			return agent.Rejected, fmt.Errorf("reading approval answer: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return agent.Approved, nil
		case "n", "no":
			return agent.Rejected, nil
		}
		fmt.Fprintln(a.out, "Please answer y or n.")
	}
}

func printPreview(out io.Writer, preview string) {
	for _, line := range strings.Split(strings.TrimRight(preview, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			color.New(color.FgGreen).Fprintln(out, line)
		case strings.HasPrefix(line, "-"):
			color.New(color.FgRed).Fprintln(out, line)
		case strings.HasPrefix(line, "@@"):
			color.New(color.FgCyan).Fprintln(out, line)
		default:
			fmt.Fprintln(out, line)
		}
	}
}
