// Package classify holds the prompts and response schema for the document
// mode decision.
package classify

import (
	_ "embed"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPrompt string

// SystemPrompt returns the system prompt for mode classification.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt returns the user prompt for mode classification. It takes no
// variables; the page images carry all the evidence.
func UserPrompt() string {
	return userPrompt
}

// Prompt keys
const (
	SystemPromptKey = "classify.system"
	UserPromptKey   = "classify.user"
)
