package stream

import "fmt"

// DefaultErrorMessage is used when an error frame carries no message.
const DefaultErrorMessage = "Stream error"

// Error is raised when the stream itself signals an error frame.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ParseError indicates the accumulated text could not be decoded, even after
// repair. Err is the error from the first parse attempt.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse streamed response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
