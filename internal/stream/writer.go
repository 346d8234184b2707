package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// WireUsage is the usageMetadata object as it appears on the wire.
type WireUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// WireFrame is the JSON payload of one data line.
type WireFrame struct {
	Text          string     `json:"text,omitempty"`
	UsageMetadata *WireUsage `json:"usageMetadata,omitempty"`
	Error         bool       `json:"error,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// ToWire converts a Usage into its wire form.
func (u Usage) ToWire() *WireUsage {
	return &WireUsage{
		PromptTokenCount:     u.InputTokens,
		CandidatesTokenCount: u.OutputTokens,
		TotalTokenCount:      u.TotalTokens,
	}
}

// Writer emits frames in the format Reader and ParseEvent consume.
// Each frame is flushed immediately when dst is an http.Flusher.
type Writer struct {
	dst     io.Writer
	flusher http.Flusher
}

// NewWriter returns a Writer over dst.
func NewWriter(dst io.Writer) *Writer {
	w := &Writer{dst: dst}
	if f, ok := dst.(http.Flusher); ok {
		w.flusher = f
	}
	return w
}

// WriteDelta emits a text frame, optionally carrying usage.
func (w *Writer) WriteDelta(text string, usage *Usage) error {
	frame := WireFrame{Text: text}
	if usage != nil {
		frame.UsageMetadata = usage.ToWire()
	}
	return w.writeJSON(frame)
}

// WriteError emits an error frame. The reader side fails with msg.
func (w *Writer) WriteError(msg string) error {
	return w.writeJSON(WireFrame{Error: true, Message: msg})
}

// WriteDone emits the [DONE] sentinel.
func (w *Writer) WriteDone() error {
	return w.writeLine(DoneSentinel)
}

func (w *Writer) writeJSON(frame WireFrame) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return w.writeLine(string(b))
}

func (w *Writer) writeLine(payload string) error {
	if _, err := io.WriteString(w.dst, dataPrefix+payload+"\n\n"); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
