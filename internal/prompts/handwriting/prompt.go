// Package handwriting holds the prompts for the pure-handwriting
// extraction path.
package handwriting

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

var userTemplate = template.Must(template.New("user").Parse(userPromptTmpl))

// UserPromptData carries the variables for the user prompt template.
type UserPromptData struct {
	SectionName string
}

// SystemPrompt returns the system prompt for handwriting transcription.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt builds the user prompt for a named section.
func UserPrompt(data UserPromptData) string {
	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		// Fallback to raw template on error
		return userPromptTmpl
	}
	return buf.String()
}

// UserPromptTemplate returns the raw user prompt template text.
func UserPromptTemplate() string {
	return userPromptTmpl
}

// Prompt keys
const (
	SystemPromptKey = "extract.handwriting.system"
	UserPromptKey   = "extract.handwriting.user"
)
