package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
)

// variablePattern matches Go template references like {{.SectionName}} or
// {{ .SectionName }}, including dotted paths such as {{.Strike.Count}}.
var variablePattern = regexp.MustCompile(`\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// ExtractVariables lists the variable names a prompt template expects, so
// callers can surface them alongside the template text. For example,
// `Analyze section "{{.SectionName}}" ({{.PageNumber}})` returns
// ["PageNumber", "SectionName"]. Dotted paths keep their full form:
// {{.Strike.Count}} returns "Strike.Count".
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool)
	var vars []string

	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		vars = append(vars, name)
	}

	sort.Strings(vars)
	return vars
}

// HashText returns the SHA-256 of a prompt text. Overrides and defaults are
// compared by this hash.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
