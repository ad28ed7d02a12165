// Package prompts provides prompt management with embedded defaults and
// per-job overrides.
//
// Embedded .tmpl files in code are the source of truth for defaults. An
// OverrideSource (backed by the job store) allows per-job customization,
// so an operator can tune the extraction wording for a troublesome batch
// without a rebuild.
//
// Resolution order for a specific job:
//  1. Job override (if one exists)
//  2. Embedded default (from .tmpl files in code)
package prompts

// EmbeddedPrompt represents a prompt loaded from an embedded .tmpl file.
type EmbeddedPrompt struct {
	Key         string   // Hierarchical key: extract.handwriting.system
	Text        string   // The prompt text (Go template)
	Description string   // Human-readable description
	Variables   []string // Extracted template variables
	Hash        string   // SHA256 hash of the text for change detection
}

// ResolvedPrompt is the result of resolving a prompt for a specific job.
type ResolvedPrompt struct {
	Key        string   `json:"key"`
	Text       string   `json:"text"`
	Variables  []string `json:"variables,omitempty"`
	IsOverride bool     `json:"is_override"`
}
