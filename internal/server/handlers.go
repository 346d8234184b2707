package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/ronpa/internal/llm"
	"github.com/abhisek/ronpa/internal/stream"
)

// Purpose recorded for requests relayed by the proxy.
const proxyPurpose = "proxy"

type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type generateBody struct {
	Text          string            `json:"text"`
	UsageMetadata *stream.WireUsage `json:"usageMetadata,omitempty"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	relay := newRelay(w)
	ctx := llm.WithPurpose(r.Context(), proxyPurpose)

	resp, err := s.backend.GenerateStream(ctx, req, relay.progress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// The client went away; nobody is left to tell.
			return
		}
		s.log.Warn("stream failed", "error", err, "started", relay.started)
		if !relay.started {
			writeError(w, statusFor(err), messageFor(err))
			return
		}
		_ = relay.sw.WriteError(messageFor(err))
		return
	}

	relay.finish(resp.Usage.StreamUsage())
	if relay.err != nil {
		s.log.Debug("client write failed", "error", relay.err)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	ctx := llm.WithPurpose(r.Context(), proxyPurpose)
	resp, err := s.backend.Generate(ctx, req)
	if err != nil {
		s.log.Warn("generate failed", "error", err)
		writeError(w, statusFor(err), messageFor(err))
		return
	}

	writeJSON(w, http.StatusOK, generateBody{
		Text:          resp.Text,
		UsageMetadata: resp.Usage.StreamUsage().ToWire(),
	})
}

// decodeRequest reads the proxy body. On failure it has already answered.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (llm.Request, bool) {
	var pr llm.ProxyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestSize))
	if err := dec.Decode(&pr); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return llm.Request{}, false
	}
	if len(pr.Contents) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request: contents is required")
		return llm.Request{}, false
	}

	req := pr.Request()
	req.Passthrough = true
	return req, true
}

// relay forwards cumulative progress as SSE deltas. Headers are written on
// the first frame so that failures before any output can still be reported
// with a status code.
type relay struct {
	w       http.ResponseWriter
	sw      *stream.Writer
	sent    int
	started bool
	err     error
}

func newRelay(w http.ResponseWriter) *relay {
	return &relay{w: w, sw: stream.NewWriter(w)}
}

func (rl *relay) start() {
	if rl.started {
		return
	}
	rl.started = true
	h := rl.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	rl.w.WriteHeader(http.StatusOK)
}

// progress receives the cumulative text. The text only ever grows, so the
// unsent suffix is the delta.
func (rl *relay) progress(text string) {
	if rl.err != nil || len(text) <= rl.sent {
		return
	}
	rl.start()
	delta := text[rl.sent:]
	rl.sent = len(text)
	rl.err = rl.sw.WriteDelta(delta, nil)
}

func (rl *relay) finish(usage *stream.Usage) {
	rl.start()
	if rl.err != nil {
		return
	}
	if rl.err = rl.sw.WriteDelta("", usage); rl.err != nil {
		return
	}
	rl.err = rl.sw.WriteDone()
}

// statusFor maps backend errors to the status returned before streaming.
func statusFor(err error) int {
	var start *llm.ErrStartStream
	var rl *llm.ErrRateLimit
	var unavail *llm.ErrProviderUnavailable
	switch {
	case errors.As(err, &start):
		return start.StatusCode
	case errors.As(err, &rl):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &unavail):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// messageFor extracts the client-facing message for err.
func messageFor(err error) string {
	var start *llm.ErrStartStream
	var se *llm.ErrStream
	switch {
	case errors.As(err, &start):
		return start.Message
	case errors.As(err, &se):
		return se.Error()
	default:
		return err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: true, Message: msg})
}
