package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"cora/agent"
)

// renderer consumes loop events and prints progress lines, and renders final
// answers as terminal markdown.
type renderer struct {
	out      io.Writer
	markdown *glamour.TermRenderer

	mu   sync.Mutex
	done chan struct{}
}

func newRenderer(out io.Writer) *renderer {
	md, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		md = nil
	}
	return &renderer{out: out, markdown: md}
}

// watch consumes events until the channel closes. Call once per app.
func (r *renderer) watch(events <-chan agent.Event) {
	r.done = make(chan struct{})
	go func() {
		defer close(r.done)
		for event := range events {
			r.printEvent(event)
		}
	}()
}

// wait blocks until the event channel is drained.
func (r *renderer) wait() {
	if r.done != nil {
		<-r.done
	}
}

func (r *renderer) printEvent(event agent.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dim := color.New(color.Faint)
	switch event.Kind {
	case agent.EventToolCallStart:
		tool, _ := event.Data["tool"].(string)
		if event.Role == agent.RoleMain {
			dim.Fprintf(r.out, "  %s ...\n", tool)
		} else {
			dim.Fprintf(r.out, "  [%s] %s ...\n", event.Role, tool)
		}
	case agent.EventDelegationStart:
		desc, _ := event.Data["description"].(string)
		color.New(color.FgMagenta).Fprintf(r.out, "  delegating to %s: %s\n", event.Role, desc)
	case agent.EventDelegationEnd:
		desc, _ := event.Data["description"].(string)
		dim.Fprintf(r.out, "  %s finished: %s\n", event.Role, desc)
	case agent.EventIterationLimit:
		limit, _ := event.Data["limit"].(int)
		color.New(color.FgYellow).Fprintf(r.out, "  iteration limit reached (%d)\n", limit)
	case agent.EventError:
		msg, _ := event.Data["error"].(string)
		color.New(color.FgRed).Fprintf(r.out, "  error: %s\n", msg)
	}
}

// printAnswer renders the assistant's final text as markdown, falling back
// to plain text when the terminal renderer is unavailable.
func (r *renderer) printAnswer(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			fmt.Fprint(r.out, rendered)
			return
		}
	}
	fmt.Fprintln(r.out, text)
}
