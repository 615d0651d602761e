package llm

import "context"

// Provider is the abstraction over the language model backend. The tutor
// only needs plain text completion; consumers that require structure parse
// the returned text themselves.
type Provider interface {
	// Complete sends a prompt to the model and returns its text output.
	Complete(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System sets the model's role and constraints. Optional.
	System string

	// Prompt is the user-turn content.
	Prompt string

	// MaxTokens caps the response length. Zero means the provider default.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64
}

// Response holds the model's output.
type Response struct {
	// Text is the generated output with surrounding whitespace trimmed.
	Text string

	// Model is the actual model that served the request.
	Model string

	// Usage reports token consumption for this request.
	Usage Usage
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
