package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ronpa/internal/llm"
	"github.com/abhisek/ronpa/internal/logging"
	"github.com/abhisek/ronpa/internal/stream"
)

func newTestServer(t *testing.T, backend llm.Provider, apiKey string) *httptest.Server {
	t.Helper()
	s, err := New(Options{Backend: backend, APIKey: apiKey, Logger: logging.Nop()})
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, llm.NewMockProvider(), "")

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "mock", body["model"])
}

func TestStream_RelaysDeltas(t *testing.T) {
	backend := llm.NewMockProvider(llm.MockResponse{
		Chunks: []string{`{"claim":`, `"Practice`, ` matters."}`},
		Usage:  llm.Usage{InputTokens: 5, OutputTokens: 4, TotalTokens: 9},
	})
	ts := newTestServer(t, backend, "")

	resp := post(t, ts.URL+llm.ProxyStreamPath, `{"model":"gemini-flash","contents":"Rebut.","config":{}}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	want := "data: {\"text\":\"{\\\"claim\\\":\"}\n\n" +
		"data: {\"text\":\"\\\"Practice\"}\n\n" +
		"data: {\"text\":\" matters.\\\"}\"}\n\n" +
		"data: {\"usageMetadata\":{\"promptTokenCount\":5,\"candidatesTokenCount\":4,\"totalTokenCount\":9}}\n\n" +
		"data: [DONE]\n\n"
	assert.Equal(t, want, string(raw))

	require.Equal(t, 1, backend.CallCount())
	call := backend.Calls[0]
	assert.True(t, call.Passthrough)
	assert.Equal(t, "gemini-flash", call.Model)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "Rebut."}}, call.Messages)
}

func TestStream_RoundTripThroughClient(t *testing.T) {
	schema := &llm.Schema{
		Name: "test-roundtrip",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"claim": map[string]any{"type": "string"}},
			"required":   []any{"claim"},
		},
	}
	backend := llm.NewMockProvider(llm.MockResponse{
		// Invalid for the schema as sent; the server must still relay it.
		Chunks: []string{"<think>hmm</think>", `{"claim":"Homework`, ` builds habits."`},
		Usage:  llm.Usage{InputTokens: 10, OutputTokens: 6, TotalTokens: 16},
	})
	ts := newTestServer(t, backend, "k")

	client, err := llm.NewProxyProvider(llm.ProxyConfig{URL: ts.URL, APIKey: "k"}, logging.Nop())
	require.NoError(t, err)

	var progress []string
	resp, err := client.GenerateStream(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Rebut."}},
		Schema:   schema,
	}, func(text string) { progress = append(progress, text) })
	require.NoError(t, err)

	assert.JSONEq(t, `{"claim":"Homework builds habits."}`, string(resp.Content))
	assert.Equal(t, llm.Usage{InputTokens: 10, OutputTokens: 6, TotalTokens: 16}, resp.Usage)
	// One per delta plus the usage frame.
	assert.Len(t, progress, 4)

	require.Equal(t, 1, backend.CallCount())
	require.NotNil(t, backend.Calls[0].Schema)
	assert.Equal(t, "object", backend.Calls[0].Schema.Definition["type"])
}

func TestStream_ErrorBeforeOutput(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"upstream status", &llm.ErrStartStream{StatusCode: 429, Message: "Quota exceeded"}, 429, "Quota exceeded"},
		{"rate limit", &llm.ErrRateLimit{Err: errors.New("slow")}, 429, ""},
		{"unavailable", &llm.ErrProviderUnavailable{Err: errors.New("down")}, 502, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, llm.NewMockProvider(llm.MockResponse{Err: tt.err}), "")

			client, err := llm.NewProxyProvider(llm.ProxyConfig{URL: ts.URL}, logging.Nop())
			require.NoError(t, err)

			_, err = client.GenerateStream(context.Background(), llm.Request{
				Messages: []llm.Message{{Role: llm.RoleUser, Content: "x"}},
			}, nil)
			var se *llm.ErrStartStream
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStatus, se.StatusCode)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, se.Message)
			} else {
				assert.NotEmpty(t, se.Message)
			}
		})
	}
}

func TestStream_ErrorAfterOutput(t *testing.T) {
	backend := llm.NewMockProvider(llm.MockResponse{
		Chunks:    []string{"partial"},
		StreamErr: &llm.ErrStream{Err: &stream.Error{Message: "Quota exceeded"}},
	})
	ts := newTestServer(t, backend, "")

	resp := post(t, ts.URL+llm.ProxyStreamPath, `{"contents":"x"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t,
		"data: {\"text\":\"partial\"}\n\n"+
			"data: {\"error\":true,\"message\":\"Quota exceeded\"}\n\n",
		string(raw))
}

func TestStream_BadRequest(t *testing.T) {
	ts := newTestServer(t, llm.NewMockProvider(), "")

	for _, body := range []string{`not json`, `{"contents":42}`, `{"model":"m"}`} {
		resp := post(t, ts.URL+llm.ProxyStreamPath, body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

		var eb errorBody
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
		assert.True(t, eb.Error)
		assert.True(t, strings.HasPrefix(eb.Message, "invalid request"), eb.Message)
	}
}

func TestAPIKey(t *testing.T) {
	backend := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`ok`)})
	ts := newTestServer(t, backend, "secret")

	resp := post(t, ts.URL+llm.ProxyGeneratePath, `{"contents":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var eb errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&eb))
	assert.Equal(t, errorBody{Error: true, Message: "unauthorized"}, eb)

	resp = post(t, ts.URL+llm.ProxyGeneratePath, `{"contents":"x"}`, http.Header{"X-Api-Key": {"secret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health stays open.
	hr, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	hr.Body.Close()
	assert.Equal(t, http.StatusOK, hr.StatusCode)
	assert.Equal(t, 1, backend.CallCount())
}

func TestGenerate(t *testing.T) {
	backend := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"claim":"x"}`),
		Usage:   llm.Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3},
	})
	ts := newTestServer(t, backend, "")

	resp := post(t, ts.URL+llm.ProxyGeneratePath, `{"contents":[{"role":"user","parts":[{"text":"x"}]}]}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body generateBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, `{"claim":"x"}`, body.Text)
	require.NotNil(t, body.UsageMetadata)
	assert.Equal(t, 3, body.UsageMetadata.TotalTokenCount)
}

func TestGenerate_RoundTripThroughClient(t *testing.T) {
	backend := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`<think>short</think>{"claim":"Homework builds habits."`),
		Usage:   llm.Usage{InputTokens: 7, OutputTokens: 5, TotalTokens: 12},
	})
	ts := newTestServer(t, backend, "k")

	client, err := llm.NewProxyProvider(llm.ProxyConfig{URL: ts.URL, APIKey: "k"}, logging.Nop())
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Rebut."}},
		Schema: &llm.Schema{Name: "round-trip", Definition: map[string]any{
			"type": "object", "required": []any{"claim"},
		}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"claim":"Homework builds habits."}`, string(resp.Content))
	assert.Equal(t, llm.Usage{InputTokens: 7, OutputTokens: 5, TotalTokens: 12}, resp.Usage)
	require.Equal(t, 1, backend.CallCount())
}

func TestGenerate_ClientWithoutUsageMetadata(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, llm.ProxyGeneratePath, r.URL.Path)
		writeJSON(w, http.StatusOK, generateBody{Text: "plain answer"})
	}))
	t.Cleanup(ts.Close)

	client, err := llm.NewProxyProvider(llm.ProxyConfig{URL: ts.URL}, logging.Nop())
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "plain answer", string(resp.Content))
	assert.Equal(t, llm.Usage{}, resp.Usage)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, llm.NewMockProvider(), "")

	req, err := http.NewRequest(http.MethodOptions, ts.URL+llm.ProxyStreamPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-api-key")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestNewRequiresBackend(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}
