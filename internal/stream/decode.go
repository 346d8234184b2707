package stream

import (
	"encoding/json"
)

// Decode cleans text and unmarshals it into T. If the first parse fails and
// the cleaned text is not empty, it retries exactly once on Repair(text).
// When both attempts fail the returned *ParseError wraps the first error.
func Decode[T any](text string) (T, error) {
	var zero T
	cleaned := Clean(text)

	var out T
	err := json.Unmarshal([]byte(cleaned), &out)
	if err == nil {
		return out, nil
	}
	if cleaned == "" {
		return zero, &ParseError{Text: text, Err: err}
	}

	var repaired T
	if rerr := json.Unmarshal([]byte(Repair(cleaned)), &repaired); rerr == nil {
		return repaired, nil
	}
	return zero, &ParseError{Text: text, Err: err}
}

// Finalize decodes the accumulated text of acc together with its usage.
func Finalize[T any](acc *Accumulator) (*Result[T], error) {
	text := acc.Text()
	v, err := Decode[T](text)
	if err != nil {
		return nil, err
	}
	return &Result[T]{Value: v, Usage: acc.Usage(), Text: text}, nil
}
