package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-feedback",
		Description: "Coach feedback",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"advice": map[string]any{"type": "string"},
				"score":  map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
				"side":   map[string]any{"type": "string", "enum": []any{"proposition", "opposition"}},
			},
			"required": []any{"advice", "score"},
		},
	}
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"advice":"Lead with evidence.","score":7,"side":"opposition"}`)
	err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_ValidWithoutOptional(t *testing.T) {
	raw := json.RawMessage(`{"advice":"Slow down.","score":5}`)
	err := validateResponse(testSchema(), raw)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"advice":"Cite sources."}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"advice":"x","score":"seven"}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_InvalidEnum(t *testing.T) {
	raw := json.RawMessage(`{"advice":"x","score":9,"side":"bench"}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for invalid enum value")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_EmptyResponse(t *testing.T) {
	raw := json.RawMessage(``)
	err := validateResponse(testSchema(), raw)
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	err := validateResponse(nil, raw)
	if err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name:        "test-nested",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"speaker": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
					"required": []any{"name"},
				},
				"points": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"speaker", "points"},
		},
	}

	valid := json.RawMessage(`{"speaker":{"name":"Ana"},"points":[3,2,4]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"speaker":{"name":"Ana"},"points":["not","ints"]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}

func TestValidateResponse_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"advice":"x","score":11}`)
	if err := validateResponse(testSchema(), raw); err == nil {
		t.Fatal("expected error for score above maximum")
	}
}

func TestValidateResponse_SameNameDifferentDefinitions(t *testing.T) {
	strict := &Schema{Name: "shared", Definition: map[string]any{
		"type": "object", "required": []any{"claim"},
	}}
	loose := &Schema{Name: "shared", Definition: map[string]any{"type": "object"}}

	if err := validateResponse(loose, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("loose schema: unexpected error: %v", err)
	}
	if err := validateResponse(strict, json.RawMessage(`{}`)); err == nil {
		t.Fatal("strict schema: expected error, got cached loose validator")
	}
}

func TestValidateResponse_FractionalScore(t *testing.T) {
	err := validateResponse(testSchema(), json.RawMessage(`{"advice":"a","score":7.5}`))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse for 7.5, got: %v", err)
	}
}
