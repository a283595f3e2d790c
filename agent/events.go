package agent

import (
	"sync"
	"time"
)

// EventKind identifies the type of loop event.
type EventKind string

const (
	EventTurnStart         EventKind = "turn_start"
	EventTurnEnd           EventKind = "turn_end"
	EventModelCallStart    EventKind = "model_call_start"
	EventModelCallEnd      EventKind = "model_call_end"
	EventToolCallStart     EventKind = "tool_call_start"
	EventToolCallEnd       EventKind = "tool_call_end"
	EventApprovalRequested EventKind = "approval_requested"
	EventApprovalDecided   EventKind = "approval_decided"
	EventDelegationStart   EventKind = "delegation_start"
	EventDelegationEnd     EventKind = "delegation_end"
	EventIterationLimit    EventKind = "iteration_limit"
	EventWarning           EventKind = "warning"
	EventError             EventKind = "error"
)

// Event is a typed notification emitted by a loop run. LoopID distinguishes
// the main loop from its delegated sub-loops when they share an emitter.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	LoopID    string                 `json:"loop_id"`
	Role      Role                   `json:"role"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventEmitter delivers typed events to the host application via a channel.
// Emission never blocks a loop: when the buffer is full the event is dropped.
type EventEmitter struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

// NewEventEmitter creates an EventEmitter with a buffered channel.
func NewEventEmitter(bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &EventEmitter{ch: make(chan Event, bufferSize)}
}

// Emit sends an event to the channel. Events sent after Close, or while the
// buffer is full, are silently dropped.
func (e *EventEmitter) Emit(loopID string, role Role, kind EventKind, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	event := Event{
		Kind:      kind,
		Timestamp: time.Now(),
		LoopID:    loopID,
		Role:      role,
		Data:      data,
	}
	select {
	case e.ch <- event:
	default:
	}
}

// Events returns the read-only event channel.
func (e *EventEmitter) Events() <-chan Event {
	return e.ch
}

// Close closes the event channel. Safe to call multiple times.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
