package stream

import "strings"

// Accumulator is the append-only text buffer for one logical request.
// It is not safe for concurrent use; one goroutine drives one stream.
type Accumulator struct {
	buf        strings.Builder
	usage      Usage
	onProgress ProgressFunc
	done       bool
}

// NewAccumulator returns an empty Accumulator. onProgress may be nil.
func NewAccumulator(onProgress ProgressFunc) *Accumulator {
	return &Accumulator{onProgress: onProgress}
}

// Add applies one frame. Frames arriving after a terminal frame are ignored.
// It reports whether the stream is still open.
func (a *Accumulator) Add(f Frame) bool {
	if a.done {
		return false
	}
	if f.Done {
		a.done = true
		return false
	}

	if f.Usage != nil {
		a.usage = *f.Usage
	}

	a.buf.WriteString(f.Delta)
	if a.onProgress != nil {
		a.onProgress(a.buf.String())
	}
	return true
}

// Append is a shorthand for adding a text-only frame.
func (a *Accumulator) Append(delta string) bool {
	return a.Add(Frame{Delta: delta})
}

// SetUsage overwrites the tracked usage snapshot.
func (a *Accumulator) SetUsage(u Usage) {
	a.usage = u
}

// Close marks the stream terminated. Later frames are ignored.
func (a *Accumulator) Close() {
	a.done = true
}

// Text returns the accumulated text so far.
func (a *Accumulator) Text() string {
	return a.buf.String()
}

// Len returns the accumulated text length in bytes.
func (a *Accumulator) Len() int {
	return a.buf.Len()
}

// Usage returns the most recent usage snapshot.
func (a *Accumulator) Usage() Usage {
	return a.usage
}

// Done reports whether a terminal frame has been seen.
func (a *Accumulator) Done() bool {
	return a.done
}
