package classify

import "encoding/json"

// ResultSchema is the JSON schema for the mode classification response.
var ResultSchema = map[string]any{
	"name":   "document_mode",
	"strict": true,
	"schema": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"mode", "confidence"},
		"properties": map[string]any{
			"mode": map[string]any{
				"type":        "string",
				"enum":        []string{"handwriting_only", "hybrid"},
				"description": "How the document should be processed",
			},
			"confidence": map[string]any{
				"type":        "string",
				"enum":        []string{"high", "medium", "low"},
				"description": "Confidence in the mode decision",
			},
			"reason": map[string]any{
				"type":        "string",
				"description": "One-sentence visual evidence for the decision",
			},
		},
	},
}

// ResultSchemaJSON returns the schema serialized for a response format.
func ResultSchemaJSON() json.RawMessage {
	b, _ := json.Marshal(ResultSchema)
	return b
}
