// Package envelope holds the JSON contracts for extraction requests and
// results and validates documents against them.
package envelope

import (
	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/extraction"
)

// MaxTextLength bounds the OCR text a request may carry.
const MaxTextLength = 64 << 10

// BuildRequestSchema returns the JSON Schema for {"field", "text"}.
func BuildRequestSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"field": map[string]any{"type": "string", "enum": constants.AcceptedFieldNames()},
			"text":  map[string]any{"type": "string", "maxLength": MaxTextLength},
		},
		"required": []string{"field", "text"},
	}
}

// BuildResultSchema returns the JSON Schema for an extraction.Result.
// The oneOf ties UNREADABLE to confidence 0 and a failed result.
func BuildResultSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"field":      map[string]any{"type": "string", "enum": constants.FieldsAsStringSlice()},
			"value":      map[string]any{"type": "string", "minLength": 1},
			"confidence": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"rawText":    map[string]any{"type": "string", "maxLength": extraction.RawTextLimit},
			"method":     map[string]any{"type": "string", "minLength": 1},
			"success":    map[string]any{"type": "boolean"},
		},
		"required": []string{"field", "value", "confidence", "rawText", "method", "success"},
		"oneOf": []any{
			map[string]any{
				"properties": map[string]any{
					"value":      map[string]any{"const": constants.Unreadable},
					"confidence": map[string]any{"const": 0},
					"success":    map[string]any{"const": false},
				},
			},
			map[string]any{
				"properties": map[string]any{
					"value":      map[string]any{"not": map[string]any{"const": constants.Unreadable}},
					"confidence": map[string]any{"minimum": 1},
					"success":    map[string]any{"const": true},
				},
			},
		},
	}
}
