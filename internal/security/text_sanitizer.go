package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService strips markup from user-submitted text.
// Opinions are stored and re-served as plain text, so no tags survive.
type TextSanitizerService interface {
	// Sanitize removes all HTML from the input and trims whitespace.
	// Idempotent: sanitizing sanitized text returns it unchanged.
	Sanitize(raw string) string
}

// textSanitizer implements TextSanitizerService with bluemonday's
// strict policy, which allows no elements at all.
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer returns a TextSanitizerService for plain-text input.
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize removes every HTML element and attribute from raw.
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
