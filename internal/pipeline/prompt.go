package pipeline

import "strings"

// RenderPrompt substitutes the artifact text and the serialized ledger into
// the reconciliation prompt template. Unknown placeholders pass through
// untouched.
func RenderPrompt(template, text, matchData string) string {
	return strings.NewReplacer(
		"{text}", text,
		"{match_data}", matchData,
	).Replace(template)
}
