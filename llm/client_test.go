package llm

import (
	"context"
	"testing"
	"time"
)

type stubAdapter struct {
	name      string
	responses []*Response
	errs      []error
	calls     int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return &Response{Message: AssistantMessage("done")}, nil
}

func TestClientRoutesToDefaultProvider(t *testing.T) {
	adapter := &stubAdapter{name: "stub"}
	client := NewClient(WithProvider("stub", adapter))

	resp, err := client.Complete(context.Background(), Request{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "done" {
		t.Errorf("unexpected response text: %q", resp.Text())
	}
	if adapter.calls != 1 {
		t.Errorf("expected 1 adapter call, got %d", adapter.calls)
	}
}

func TestClientUnknownProvider(t *testing.T) {
	client := NewClient(WithProvider("stub", &stubAdapter{name: "stub"}))

	_, err := client.Complete(context.Background(), Request{Provider: "missing"})
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("expected ConfigurationError, got %T", err)
	}
}

func TestClientNoProviders(t *testing.T) {
	client := NewClient()
	_, err := client.Complete(context.Background(), Request{})
	if _, ok := err.(*ConfigurationError); !ok {
		t.Errorf("expected ConfigurationError, got %T", err)
	}
}

func TestClientRetriesRetryableFailure(t *testing.T) {
	adapter := &stubAdapter{
		name: "stub",
		errs: []error{
			&ServerError{ProviderError: ProviderError{
				ClientError: ClientError{Message: "flaky"}, Retryable: true,
			}},
			nil,
		},
		responses: []*Response{nil, {Message: AssistantMessage("recovered")}},
	}
	client := NewClient(
		WithProvider("stub", adapter),
		WithRetryPolicy(RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}),
	)

	resp, err := client.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "recovered" {
		t.Errorf("unexpected text: %q", resp.Text())
	}
	if adapter.calls != 2 {
		t.Errorf("expected 2 calls, got %d", adapter.calls)
	}
}

func TestClientDoesNotRetryAuthFailure(t *testing.T) {
	adapter := &stubAdapter{
		name: "stub",
		errs: []error{&AuthenticationError{ProviderError: ProviderError{
			ClientError: ClientError{Message: "bad key"},
		}}},
	}
	client := NewClient(
		WithProvider("stub", adapter),
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 1, MaxDelay: time.Millisecond}),
	)

	if _, err := client.Complete(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}
	if adapter.calls != 1 {
		t.Errorf("auth failure must not be retried; got %d calls", adapter.calls)
	}
}

func TestResponseToolCallExtraction(t *testing.T) {
	resp := Response{
		Message: Message{
			Role: RoleAssistant,
			Content: []ContentPart{
				TextPart("working on it"),
				ToolCallPart("call_1", "read_file", []byte(`{"file_path":"a.go"}`)),
				ToolCallPart("call_2", "grep", []byte(`{"pattern":"TODO"}`)),
			},
		},
	}

	calls := resp.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(calls))
	}
	if calls[0].ID != "call_1" || calls[0].Name != "read_file" {
		t.Errorf("unexpected first call: %+v", calls[0])
	}
	if calls[1].ID != "call_2" || calls[1].Name != "grep" {
		t.Errorf("unexpected second call: %+v", calls[1])
	}
	if resp.Text() != "working on it" {
		t.Errorf("unexpected text: %q", resp.Text())
	}
}

func TestParseToolCallsFromText(t *testing.T) {
	text := `[{"name":"glob","arguments":{"pattern":"*.go"}}]`
	calls := parseToolCalls(text)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "glob" {
		t.Errorf("unexpected name: %s", calls[0].Name)
	}
	if removeToolCallJSON(text, calls) != "" {
		t.Errorf("expected empty remainder")
	}
}

func TestParseToolCallsPlainText(t *testing.T) {
	if calls := parseToolCalls("no tools needed here"); calls != nil {
		t.Errorf("expected nil, got %v", calls)
	}
}
