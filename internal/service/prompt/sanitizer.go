package prompt

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds the decode loop for nested entity encodings.
const maxSanitizePasses = 8

// textSanitizer strips all markup from short display fields. Safe for
// concurrent use.
type textSanitizer struct {
	policy *bluemonday.Policy
}

func newTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize returns s as plain text: tags removed, entities decoded, trimmed.
//
// Decoding can surface markup that was entity-encoded in the input, so the
// strip and decode steps repeat until the value stops changing. If it never
// settles the still-escaped policy output is returned.
func (t *textSanitizer) Sanitize(s string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(t.policy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(next)
		}
		s = next
	}
	return strings.TrimSpace(t.policy.Sanitize(s))
}
