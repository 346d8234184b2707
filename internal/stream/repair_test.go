package stream

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"nested closers innermost first", `{"a":1,"b":[1,2`, `{"a":1,"b":[1,2]}`},
		{"missing brace", `{"a":1`, `{"a":1}`},
		{"trailing comma", `{"a":1,`, `{"a":1}`},
		{"trailing comma before bracket", `[1,2, ]`, `[1,2]`},
		{"only first trailing comma", `{"a":[1,],"b":[2,]}`, `{"a":[1],"b":[2,]}`},
		{"unterminated string", `{"claim":"taxes are`, `{"claim":"taxes are"}`},
		{"braces inside strings ignored", `{"a":"{[","b":1`, `{"a":"{[","b":1}`},
		{"escaped quote inside string", `{"a":"say \"hi\"`, `{"a":"say \"hi\""}`},
		{"odd escaped quotes inside string", `{"a":"x\"y`, `{"a":"x\"y"}`},
		{"already valid", `{"a":1}`, `{"a":1}`},
		{"whitespace trimmed", "  {\"a\":1}\n", `{"a":1}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.input))
		})
	}
}

func TestRepair_EscapedQuoteParses(t *testing.T) {
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(Repair(`{"a":"x\"y`)), &v))
	assert.Equal(t, `x"y`, v["a"])
}

func TestDecode_RepairsTruncatedObject(t *testing.T) {
	type payload struct {
		A int   `json:"a"`
		B []int `json:"b"`
	}
	got, err := Decode[payload](`{"a":1,"b":[1,2`)
	require.NoError(t, err)
	assert.Equal(t, payload{A: 1, B: []int{1, 2}}, got)
}

func TestDecode_EmptyInputSurfacesOriginalError(t *testing.T) {
	_, err := Decode[map[string]any]("   ")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "expected the original json error, got %v", pe.Err)
}

func TestDecode_IrreparableSurfacesFirstError(t *testing.T) {
	_, firstErr := func() (any, error) {
		var v map[string]any
		return v, json.Unmarshal([]byte("not json at all"), &v)
	}()

	_, err := Decode[map[string]any]("not json at all")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, firstErr.Error(), pe.Err.Error())
	assert.Equal(t, "not json at all", pe.Text)
}

func TestDecode_CleansBeforeParsing(t *testing.T) {
	got, err := Decode[map[string]string]("<think>plan</think>\n**{\"claim\":\"yes\"}**")
	require.NoError(t, err)
	assert.Equal(t, "yes", got["claim"])
}

func TestFinalize_CarriesUsage(t *testing.T) {
	acc := NewAccumulator(nil)
	acc.Add(Frame{Delta: `{"ok":true}`, Usage: &Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}})

	res, err := Finalize[map[string]bool](acc)
	require.NoError(t, err)
	assert.True(t, res.Value["ok"])
	assert.Equal(t, Usage{InputTokens: 1, OutputTokens: 2, TotalTokens: 3}, res.Usage)
	assert.Equal(t, `{"ok":true}`, res.Text)
}
