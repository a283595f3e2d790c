package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// GollmAdapter wraps a gollm.LLM instance and implements ProviderAdapter.
// It translates between the client types and gollm's prompt API.
//
// gollm keeps request parameters, including the system prompt passed to
// Generate, in the LLM instance's shared options map. The mutex serializes
// Complete so overlapping calls cannot see each other's parameters.
type GollmAdapter struct {
	provider string
	llm      gollm.LLM
	model    string
	mu       sync.Mutex
}

// GollmOption configures a GollmAdapter.
type GollmOption func(*gollmConfig)

type gollmConfig struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	extraOpts   []gollm.ConfigOption
}

// WithAPIKey sets the API key for the adapter.
func WithAPIKey(key string) GollmOption {
	return func(c *gollmConfig) { c.apiKey = key }
}

// WithModel sets the default model for the adapter.
func WithModel(model string) GollmOption {
	return func(c *gollmConfig) { c.model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) GollmOption {
	return func(c *gollmConfig) { c.maxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) GollmOption {
	return func(c *gollmConfig) { c.temperature = t }
}

// WithGollmOptions adds extra gollm configuration options.
func WithGollmOptions(opts ...gollm.ConfigOption) GollmOption {
	return func(c *gollmConfig) { c.extraOpts = append(c.extraOpts, opts...) }
}

// NewGollmAdapter creates a GollmAdapter for the given provider. If apiKey is
// empty, gollm reads it from the provider's environment variable.
func NewGollmAdapter(provider, apiKey string, opts ...GollmOption) (*GollmAdapter, error) {
	cfg := &gollmConfig{
		apiKey:      apiKey,
		maxTokens:   4096,
		temperature: 0.1,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	model := cfg.model
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-5"
		default:
			model = "gpt-4o"
		}
	}

	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(cfg.maxTokens),
		gollm.SetTemperature(cfg.temperature),
		gollm.SetMaxRetries(0), // retries are the Client's job
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if cfg.apiKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(cfg.apiKey))
	}
	gollmOpts = append(gollmOpts, cfg.extraOpts...)

	inner, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gollm LLM for provider %s: %w", provider, err)
	}

	return &GollmAdapter{provider: provider, llm: inner, model: model}, nil
}

// Name returns the provider identifier.
func (a *GollmAdapter) Name() string { return a.provider }

// Complete sends a blocking request and returns the full response. Calls are
// serialized because the underlying gollm instance holds request parameters
// in instance state.
func (a *GollmAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	prompt := a.translateRequest(req)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.applyRequestOptions(req)

	text, err := a.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, a.translateError(err)
	}

	return a.buildResponse(req, text), nil
}

// translateRequest converts a Request into a gollm Prompt. gollm takes a
// single prompt string, so the transcript is flattened with role markers.
func (a *GollmAdapter) translateRequest(req Request) *gollm.Prompt {
	var systemPrompt string
	var parts []string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt += msg.TextContent() + "\n"
		case RoleUser:
			parts = append(parts, msg.TextContent())
		case RoleAssistant:
			if text := msg.TextContent(); text != "" {
				parts = append(parts, "[Assistant]: "+text)
			}
			for _, part := range msg.Content {
				if part.Kind == ContentToolCall && part.ToolCall != nil {
					parts = append(parts, fmt.Sprintf("[Tool Call %s]: %s(%s)",
						part.ToolCall.ID, part.ToolCall.Name, string(part.ToolCall.Arguments)))
				}
			}
		case RoleTool:
			for _, part := range msg.Content {
				if part.Kind == ContentToolResult && part.ToolResult != nil {
					prefix := "[Tool Result]"
					if part.ToolResult.IsError {
						prefix = "[Tool Error]"
					}
					parts = append(parts, prefix+": "+part.ToolResult.Content)
				}
			}
		}
	}

	promptText := strings.Join(parts, "\n")
	if promptText == "" {
		promptText = "Hello"
	}

	promptOpts := []gollm.PromptOption{}
	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(strings.TrimSpace(systemPrompt), gollm.CacheTypeEphemeral))
	}
	if req.MaxTokens != nil {
		promptOpts = append(promptOpts, gollm.WithMaxLength(*req.MaxTokens))
	}

	if len(req.ToolDefs) > 0 {
		tools := make([]gollm.Tool, 0, len(req.ToolDefs))
		for _, t := range req.ToolDefs {
			tools = append(tools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(tools))
	}

	if req.ToolChoice != nil {
		promptOpts = append(promptOpts, gollm.WithToolChoice(req.ToolChoice.Mode))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// applyRequestOptions applies request-level parameters to the gollm LLM.
func (a *GollmAdapter) applyRequestOptions(req Request) {
	if req.Model != "" {
		a.llm.SetOption("model", req.Model)
	}
	if req.Temperature != nil {
		a.llm.SetOption("temperature", *req.Temperature)
	}
	if req.MaxTokens != nil {
		a.llm.SetOption("max_tokens", *req.MaxTokens)
	}
}

// buildResponse constructs a Response from generated text, extracting any
// tool calls gollm returned embedded in the text.
func (a *GollmAdapter) buildResponse(req Request, text string) *Response {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var contentParts []ContentPart
	toolCalls := parseToolCalls(text)
	for _, tc := range toolCalls {
		call := tc
		contentParts = append(contentParts, ContentPart{Kind: ContentToolCall, ToolCall: &call})
	}

	cleaned := removeToolCallJSON(text, toolCalls)
	if cleaned != "" {
		contentParts = append([]ContentPart{TextPart(cleaned)}, contentParts...)
	}
	if len(contentParts) == 0 {
		contentParts = []ContentPart{TextPart(text)}
	}

	finishReason := FinishReason{Reason: "stop", Raw: "stop"}
	if len(toolCalls) > 0 {
		finishReason = FinishReason{Reason: "tool_calls", Raw: "tool_calls"}
	}

	return &Response{
		ID:       "resp_" + uuid.New().String()[:8],
		Model:    model,
		Provider: a.provider,
		Message: Message{
			Role:    RoleAssistant,
			Content: contentParts,
		},
		FinishReason: finishReason,
		Usage: Usage{
			// gollm does not expose usage; estimate from text length.
			InputTokens:  estimateTokens(req),
			OutputTokens: len(text) / 4,
			TotalTokens:  estimateTokens(req) + len(text)/4,
		},
	}
}

// parseToolCalls extracts tool calls gollm may have returned as JSON in the
// response text.
func parseToolCalls(text string) []ToolCallData {
	start := strings.Index(text, `{"tool_calls"`)
	if start == -1 {
		start = strings.Index(text, `[{"name"`)
	}
	if start == -1 {
		return nil
	}

	var rawCalls []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	var calls []ToolCallData
	if err := json.Unmarshal([]byte(text[start:]), &rawCalls); err == nil {
		for _, rc := range rawCalls {
			calls = append(calls, ToolCallData{
				ID:        "call_" + uuid.New().String()[:8],
				Name:      rc.Name,
				Arguments: rc.Arguments,
			})
		}
	}
	return calls
}

// removeToolCallJSON strips parsed tool call JSON from the text.
func removeToolCallJSON(text string, calls []ToolCallData) string {
	if len(calls) == 0 {
		return text
	}
	result := text
	for _, pattern := range []string{`{"tool_calls"`, `[{"name"`} {
		if idx := strings.Index(result, pattern); idx != -1 {
			result = strings.TrimSpace(result[:idx])
		}
	}
	return result
}

// translateError converts a gollm error into the client error hierarchy.
func (a *GollmAdapter) translateError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	msgLower := strings.ToLower(msg)

	wrap := func(status int, retryable bool) ProviderError {
		return ProviderError{
			ClientError: ClientError{Message: msg, Cause: err},
			Provider:    a.provider,
			StatusCode:  status,
			Retryable:   retryable,
		}
	}

	switch {
	case strings.Contains(msgLower, "401"), strings.Contains(msgLower, "unauthorized"),
		strings.Contains(msgLower, "invalid api key"):
		return &AuthenticationError{ProviderError: wrap(401, false)}
	case strings.Contains(msgLower, "403"), strings.Contains(msgLower, "forbidden"):
		return &AccessDeniedError{ProviderError: wrap(403, false)}
	case strings.Contains(msgLower, "404"), strings.Contains(msgLower, "not found"):
		return &NotFoundError{ProviderError: wrap(404, false)}
	case strings.Contains(msgLower, "429"), strings.Contains(msgLower, "rate limit"):
		return &RateLimitError{ProviderError: wrap(429, true)}
	case strings.Contains(msgLower, "context length"), strings.Contains(msgLower, "too many tokens"):
		return &ContextLengthError{ProviderError: wrap(413, false)}
	case strings.Contains(msgLower, "500"), strings.Contains(msgLower, "internal server"):
		return &ServerError{ProviderError: wrap(500, true)}
	case strings.Contains(msgLower, "timeout"):
		return &RequestTimeoutError{ClientError: ClientError{Message: msg, Cause: err}}
	case strings.Contains(msgLower, "content filter"), strings.Contains(msgLower, "safety"):
		return &ContentFilterError{ProviderError: wrap(0, false)}
	default:
		pe := wrap(0, true)
		return &pe
	}
}

// estimateTokens provides a rough token count estimate from request messages.
func estimateTokens(req Request) int {
	total := 0
	for _, msg := range req.Messages {
		for _, part := range msg.Content {
			if part.Kind == ContentText {
				total += len(part.Text) / 4
			}
		}
	}
	if total == 0 {
		total = 10
	}
	return total
}
