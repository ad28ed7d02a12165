package prompts

import (
	"github.com/jackzampolin/redline/internal/prompts/classify"
	"github.com/jackzampolin/redline/internal/prompts/handwriting"
	"github.com/jackzampolin/redline/internal/prompts/hybrid"
)

// RegisterDefaults registers the built-in prompt defaults so the prompts
// API can list them and overrides have a baseline to diff against.
func RegisterDefaults(r *Resolver) {
	r.Register(EmbeddedPrompt{
		Key:         classify.SystemPromptKey,
		Text:        classify.SystemPrompt(),
		Description: "System prompt for document mode classification",
	})
	r.Register(EmbeddedPrompt{
		Key:         classify.UserPromptKey,
		Text:        classify.UserPrompt(),
		Description: "User prompt for document mode classification",
	})
	r.Register(EmbeddedPrompt{
		Key:         handwriting.SystemPromptKey,
		Text:        handwriting.SystemPrompt(),
		Description: "System prompt for the handwriting extraction path",
	})
	r.Register(EmbeddedPrompt{
		Key:         handwriting.UserPromptKey,
		Text:        handwriting.UserPromptTemplate(),
		Description: "User prompt template for the handwriting extraction path",
	})
	r.Register(EmbeddedPrompt{
		Key:         hybrid.SystemPromptKey,
		Text:        hybrid.SystemPrompt(),
		Description: "System prompt for the hybrid extraction path",
	})
	r.Register(EmbeddedPrompt{
		Key:         hybrid.UserPromptKey,
		Text:        hybrid.UserPromptTemplate(),
		Description: "User prompt template for the hybrid extraction path",
	})
}
