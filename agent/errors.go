package agent

import "fmt"

// Fixed marker strings fed back to the model as tool results. Recovery paths
// use these exact texts so the model can distinguish a user veto or an
// interrupted run from a genuine tool failure.
const (
	// RejectionMarker is the tool result recorded when the user declines a
	// mutating tool call. The attempted operation was not performed.
	RejectionMarker = "Tool call was rejected by the user. The operation was not performed."

	// CancellationMarker is synthesized for every unanswered tool call when a
	// turn is interrupted, keeping the transcript resumable.
	CancellationMarker = "Tool call was cancelled before completion."
)

// BroadTaskMessage is the delegation result substituted when a sub-agent
// exhausts its iteration bound without producing a final report.
func BroadTaskMessage(limit int) string {
	return fmt.Sprintf("Error: sub-agent stopped after reaching the maximum of %d iterations without completing. The task may be too broad; consider splitting it into smaller, more focused tasks.", limit)
}

// SchemaViolationError reports tool call arguments that failed to decode or
// validate against the tool's parameter schema. Recovered locally: the loop
// records it as an error tool result and continues.
type SchemaViolationError struct {
	Tool string
	Err  error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %q: %v", e.Tool, e.Err)
}

func (e *SchemaViolationError) Unwrap() error { return e.Err }

// CapabilityDeniedError reports a tool call naming a tool outside the calling
// role's capability set. Recovered locally as an error tool result.
type CapabilityDeniedError struct {
	Role Role
	Tool string
}

func (e *CapabilityDeniedError) Error() string {
	return fmt.Sprintf("tool %q is not available to the %s agent", e.Tool, e.Role)
}

// RecursionExceededError reports a loop run that consumed its iteration bound
// without the model terminating. Terminal for the run but not fatal: the main
// loop surfaces it to the user, and a delegation dispatcher converts it into
// a broad-task result for the parent.
type RecursionExceededError struct {
	Role  Role
	Limit int
}

func (e *RecursionExceededError) Error() string {
	return fmt.Sprintf("%s agent exceeded the maximum of %d iterations", e.Role, e.Limit)
}

// BackendError wraps a model backend failure after retries are exhausted.
// Fatal for the current turn; the conversation remains intact for a retry.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("model backend failure: %v", e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
