package debate

import "github.com/abhisek/ronpa/internal/llm"

var stringArray = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

var rebuttalSchema = &llm.Schema{
	Name:        "debate-rebuttal",
	Description: "A rebuttal of the opponent's latest argument",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"claim":     map[string]any{"type": "string", "description": "One-sentence counter claim"},
			"reasoning": map[string]any{"type": "string", "description": "Why the opponent's argument fails"},
			"evidence":  stringArray,
			"question":  map[string]any{"type": "string", "description": "A pointed question back to the opponent"},
		},
		"required":             []any{"claim", "reasoning", "evidence", "question"},
		"additionalProperties": false,
	},
}

var feedbackSchema = &llm.Schema{
	Name:        "debate-feedback",
	Description: "An evaluation of the debater's performance",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":      map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
			"strengths":  stringArray,
			"weaknesses": stringArray,
			"advice":     map[string]any{"type": "string"},
		},
		"required":             []any{"score", "strengths", "weaknesses", "advice"},
		"additionalProperties": false,
	},
}

var hintSchema = &llm.Schema{
	Name:        "debate-hint",
	Description: "A suggestion for strengthening a draft argument",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"suggestion":   map[string]any{"type": "string"},
			"counterpoint": map[string]any{"type": "string", "description": "The strongest reply the other side could make"},
		},
		"required":             []any{"suggestion", "counterpoint"},
		"additionalProperties": false,
	},
}
