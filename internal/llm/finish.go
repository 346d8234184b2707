package llm

import (
	"encoding/json"

	"github.com/abhisek/ronpa/internal/stream"
)

// finish turns the text gathered for req into a Response. With a schema the
// text is cleaned, decoded (with one repair attempt) and validated. Without
// one, or for passthrough requests, the cleaned text is returned as is.
func finish(req Request, acc *stream.Accumulator, model, stopReason string) (*Response, error) {
	text := acc.Text()
	resp := &Response{
		Text:       text,
		Usage:      usageFromStream(acc.Usage()),
		Model:      model,
		StopReason: stopReason,
	}

	if req.Schema == nil || req.Passthrough {
		resp.Content = json.RawMessage(stream.Clean(text))
		return resp, nil
	}

	content, err := stream.Decode[json.RawMessage](text)
	if err != nil {
		if stopReason == "max_tokens" {
			return nil, &ErrMaxTokensExceeded{Content: json.RawMessage(text)}
		}
		return nil, &ErrInvalidResponse{Content: json.RawMessage(text), Err: err}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	resp.Content = content
	return resp, nil
}

// singleShot wraps a complete, non-streamed completion in an Accumulator so
// it goes through the same finishing path as a stream.
func singleShot(text string, usage Usage) *stream.Accumulator {
	acc := stream.NewAccumulator(nil)
	acc.Add(stream.Frame{Delta: text, Usage: usage.StreamUsage()})
	acc.Close()
	return acc
}
