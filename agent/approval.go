package agent

import (
	"context"
	"encoding/json"
)

// Decision is an approval gate verdict.
type Decision string

const (
	Approved Decision = "approved"
	Rejected Decision = "rejected"
)

// ApprovalRequest describes a pending mutating tool call presented to the
// user for a verdict. Preview is a human-readable rendering of the proposed
// change, never applied state.
type ApprovalRequest struct {
	Tool      string
	Arguments json.RawMessage
	Preview   string
}

// Approver decides whether a pending mutating tool call may execute. The
// gate never mutates the conversation; a rejection is recorded by the loop
// as the fixed rejection marker.
type Approver interface {
	Approve(ctx context.Context, req ApprovalRequest) (Decision, error)
}

// AutoApprover approves every request without interaction.
type AutoApprover struct{}

func (AutoApprover) Approve(context.Context, ApprovalRequest) (Decision, error) {
	return Approved, nil
}
