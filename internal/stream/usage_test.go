package stream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractUsage_ZeroWhenAbsent(t *testing.T) {
	for _, raw := range [][]byte{nil, []byte(`{}`), []byte(`null`), []byte(`{"usageMetadata":null}`), []byte(`garbage`)} {
		var buf bytes.Buffer
		got := ExtractUsage(raw, testLogger(&buf))
		assert.Equal(t, Usage{}, got, "input %q", raw)
		assert.Contains(t, buf.String(), "no usageMetadata")
	}
}

func TestExtractUsage_DefaultsEachField(t *testing.T) {
	got := ExtractUsage([]byte(`{"usageMetadata":{"promptTokenCount":12,"totalTokenCount":null}}`), nil)
	assert.Equal(t, Usage{InputTokens: 12}, got)
}

func TestExtractUsage_PassesValuesThroughUnvalidated(t *testing.T) {
	got := ExtractUsage([]byte(`{"usageMetadata":{"promptTokenCount":-4,"candidatesTokenCount":"7","totalTokenCount":3}}`), nil)
	assert.Equal(t, Usage{InputTokens: -4, OutputTokens: 7, TotalTokens: 3}, got)
}
