package stream

import (
	"bufio"
	"io"
	"strings"
)

const dataPrefix = "data: "

const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// Reader yields the payloads of "data: " lines from an SSE byte stream.
//
// Bytes are buffered until a full line is available, so multi-byte UTF-8
// sequences split across network reads are decoded intact. Lines without the
// exact "data: " prefix (blank separators, ":" comments, event/id fields) are
// dropped.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader returns a Reader over src. The caller keeps ownership of src and
// is responsible for closing it.
func NewReader(src io.Reader) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns the next data payload with the prefix stripped. It returns
// io.EOF once the source is exhausted.
func (r *Reader) Next() (string, error) {
	for r.scanner.Scan() {
		// ScanLines already drops a trailing \r.
		line := r.scanner.Text()
		if payload, ok := strings.CutPrefix(line, dataPrefix); ok {
			return payload, nil
		}
	}
	if err := r.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
