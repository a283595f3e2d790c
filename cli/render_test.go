package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"cora/agent"
)

func TestRendererWaitDrainsPendingEvents(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out)

	emitter := agent.NewEventEmitter(16)
	r.watch(emitter.Events())

	for i := 0; i < 5; i++ {
		emitter.Emit("loop", agent.RoleMain, agent.EventError, map[string]interface{}{
			"error": fmt.Sprintf("failure %d", i),
		})
	}
	emitter.Close()
	r.wait()

	// Everything emitted before Close is printed once wait returns.
	for i := 0; i < 5; i++ {
		assert.Contains(t, out.String(), fmt.Sprintf("failure %d", i))
	}
}

func TestRendererWaitWithoutWatch(t *testing.T) {
	r := newRenderer(&bytes.Buffer{})
	r.wait()
}
