package stream

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RoundTripsThroughCollect(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WriteDelta(`{"claim":`, nil))
	require.NoError(t, w.WriteDelta(`"ok"}`, &Usage{InputTokens: 2, OutputTokens: 3, TotalTokens: 5}))
	require.NoError(t, w.WriteDone())

	acc, err := Collect(context.Background(), io.NopCloser(&buf), Options{})
	require.NoError(t, err)
	assert.Equal(t, `{"claim":"ok"}`, acc.Text())
	assert.Equal(t, Usage{InputTokens: 2, OutputTokens: 3, TotalTokens: 5}, acc.Usage())
}

func TestWriter_ErrorFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteError("upstream down"))
	assert.Equal(t, "data: {\"error\":true,\"message\":\"upstream down\"}\n\n", buf.String())

	_, err := Collect(context.Background(), io.NopCloser(&buf), Options{})
	require.Error(t, err)
	assert.Equal(t, "upstream down", err.Error())
}
