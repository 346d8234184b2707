// Package stream assembles streamed model output delivered as Server-Sent
// Events into a decoded JSON value.
//
// The pipeline is Reader (SSE lines) -> ParseEvent (frame routing) ->
// Accumulator (append-only text buffer with progress callbacks) ->
// Decode (cleaning, JSON parse and a single best-effort repair).
package stream

// DoneSentinel is the payload that terminates a stream.
const DoneSentinel = "[DONE]"

// Usage is a token usage snapshot. The zero value means "unknown" and is
// reported to callers as all zeros.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// Frame is one decoded SSE event.
type Frame struct {
	// Delta is the text appended by this frame. May be empty.
	Delta string

	// Usage is set when the frame carried usageMetadata.
	Usage *Usage

	// Done marks the terminal [DONE] frame.
	Done bool
}

// ProgressFunc receives the full accumulated text after every append.
type ProgressFunc func(text string)

// Result is the decoded payload of one streamed request.
type Result[T any] struct {
	Value T
	Usage Usage

	// Text is the raw accumulated text before cleaning.
	Text string
}
