package llm

import (
	"context"
	"encoding/json"

	"github.com/abhisek/ronpa/internal/stream"
)

// Provider is the core abstraction for LLM interaction.
// Consumers call Generate or GenerateStream with a Request and receive
// structured JSON.
type Provider interface {
	// Generate sends a prompt to the LLM and returns a structured response.
	// The request's Schema field, when set, instructs the provider to return
	// JSON conforming to that schema. The response Content will be the
	// validated JSON.
	Generate(ctx context.Context, req Request) (*Response, error)

	// GenerateStream behaves like Generate but streams the output. onProgress,
	// when non-nil, receives the cumulative raw text after every chunk. The
	// returned Response is built once the stream has ended.
	GenerateStream(ctx context.Context, req Request, onProgress stream.ProgressFunc) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the LLM.
type Request struct {
	// System is the system prompt. Sets the LLM's role and constraints.
	System string

	// Messages is the conversation history, oldest first.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	// When nil, the response Content is raw text as json.RawMessage.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Default: 0.0 (deterministic) when not set.
	Temperature float64

	// Model overrides the provider's configured model when set. Friendly
	// names are resolved like the configured one.
	Model string

	// Passthrough skips decoding and validation even when Schema is set.
	// The schema is still sent to the model. Content is then the cleaned
	// text, for callers that relay output to a client which decodes it.
	Passthrough bool
}

// modelFor returns the model serving r: its override resolved through
// models, or def.
func (r Request) modelFor(def string, models map[string]string) string {
	if r.Model == "" {
		return def
	}
	return resolveModel(r.Model, models)
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the LLM.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI, cache key for validation). Kebab-case,
	// e.g. "debate-rebuttal".
	Name string

	// Description is a human-readable description of what this schema
	// represents. Sent to the LLM to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the LLM's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the cleaned, validated JSON object. Otherwise it is
	// the cleaned text.
	Content json.RawMessage

	// Text is the raw text as received, before cleaning or repair.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func usageFromStream(u stream.Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func (u Usage) toStream() stream.Usage {
	return stream.Usage{
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
		TotalTokens:  u.TotalTokens,
	}
}

// StreamUsage converts u for the SSE wire encoder.
func (u Usage) StreamUsage() *stream.Usage {
	su := u.toStream()
	return &su
}
