package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Options configures one assembly run.
type Options struct {
	// OnProgress, when set, is called synchronously with the cumulative text
	// after every frame.
	OnProgress ProgressFunc

	// Logger receives warnings about skipped frames. Defaults to slog.Default.
	Logger *slog.Logger
}

// Collect drains SSE frames from body into an Accumulator until the [DONE]
// sentinel, the end of the body, an error frame, or cancellation of ctx.
//
// body is always closed before Collect returns. Cancelling ctx closes body
// as well so that a read blocked on the network returns.
func Collect(ctx context.Context, body io.ReadCloser, opts Options) (*Accumulator, error) {
	defer body.Close()
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	acc := NewAccumulator(opts.OnProgress)
	r := NewReader(body)

	for {
		if err := ctx.Err(); err != nil {
			acc.Close()
			return acc, err
		}

		payload, err := r.Next()
		if errors.Is(err, io.EOF) {
			acc.Close()
			return acc, nil
		}
		if err != nil {
			acc.Close()
			if ctxErr := ctx.Err(); ctxErr != nil {
				return acc, ctxErr
			}
			return acc, fmt.Errorf("read stream: %w", err)
		}

		frame, ok, err := ParseEvent(payload, opts.Logger)
		if err != nil {
			acc.Close()
			return acc, err
		}
		if !ok {
			continue
		}
		if !acc.Add(frame) {
			return acc, nil
		}
	}
}

// Assemble collects the stream and decodes the accumulated text as T.
func Assemble[T any](ctx context.Context, body io.ReadCloser, opts Options) (*Result[T], error) {
	acc, err := Collect(ctx, body, opts)
	if err != nil {
		return nil, err
	}
	return Finalize[T](acc)
}
