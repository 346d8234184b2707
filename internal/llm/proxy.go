package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abhisek/ronpa/internal/stream"
)

// APIKeyHeader carries the shared proxy key.
const APIKeyHeader = "x-api-key"

// ProxyProvider implements Provider by talking to the ronpa proxy (or any
// server speaking the same SSE frame format).
type ProxyProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProxyProvider creates a provider for the proxy at cfg.URL.
func NewProxyProvider(cfg ProxyConfig, logger *slog.Logger) (*ProxyProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("proxy URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		// Streams stay open for the whole generation, so there is no
		// client-wide timeout; callers bound requests with a context.
		client = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 60 * time.Second,
		}}
	}
	return &ProxyProvider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		model:      resolveModel(cfg.Model, geminiModels),
		httpClient: client,
		logger:     logger,
	}, nil
}

// maxGenerateResponse bounds the body read from the non-streaming endpoint.
const maxGenerateResponse = 8 << 20

// Generate calls the non-streaming endpoint. Usage comes from the response's
// usageMetadata; a response without it reports zero usage.
func (p *ProxyProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.modelFor(p.model, geminiModels)
	resp, err := p.post(ctx, ProxyGeneratePath, "application/json", NewProxyRequest(model, req))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxGenerateResponse))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("read generate response: %w", err)}
	}
	if !gjson.ValidBytes(raw) {
		return nil, &ErrProviderUnavailable{Err: errors.New("generate response is not JSON")}
	}

	text := gjson.GetBytes(raw, "text").String()
	usage := usageFromStream(stream.ExtractUsage(raw, p.logger))
	return finish(req, singleShot(text, usage), model, "end")
}

func (p *ProxyProvider) GenerateStream(ctx context.Context, req Request, onProgress stream.ProgressFunc) (*Response, error) {
	model := req.modelFor(p.model, geminiModels)
	resp, err := p.post(ctx, ProxyStreamPath, "text/event-stream", NewProxyRequest(model, req))
	if err != nil {
		return nil, err
	}

	acc, err := stream.Collect(ctx, resp.Body, stream.Options{
		OnProgress: onProgress,
		Logger:     p.logger,
	})
	if err != nil {
		return nil, mapStreamError(err)
	}

	return finish(req, acc, model, "end")
}

func (p *ProxyProvider) ModelID() string {
	return p.model
}

// post sends body to path. A non-2xx answer is returned as *ErrStartStream
// with the body already closed; otherwise the caller owns resp.Body.
func (p *ProxyProvider) post(ctx context.Context, path, accept string, body ProxyRequest) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal proxy request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)
	if p.apiKey != "" {
		httpReq.Header.Set(APIKeyHeader, p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, startStreamError(resp)
	}
	return resp, nil
}

// startStreamError reads the failure body of a stream request. The body is
// expected to be JSON with a message field; anything else falls back to the
// default message.
func startStreamError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	msg := DefaultStartStreamMessage
	if gjson.ValidBytes(raw) {
		if m := gjson.GetBytes(raw, "message").String(); m != "" {
			msg = m
		}
	}
	return &ErrStartStream{StatusCode: resp.StatusCode, Message: msg}
}

// mapStreamError classifies an error returned while reading a stream.
func mapStreamError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var se *stream.Error
	if errors.As(err, &se) {
		return &ErrStream{Err: se}
	}
	return &ErrProviderUnavailable{Err: err}
}
