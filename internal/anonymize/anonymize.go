// Package anonymize produces the redacted text by substituting placeholders
// for accepted spans.
package anonymize

import (
	"strings"

	"github.com/savegress/cliniredact/pkg/models"
)

// Apply walks spans left to right, copying the original text and replacing
// each span with the placeholder for its entity type. Spans must be
// non-overlapping and sorted ascending by start; output offsets are not
// required to match input offsets.
func Apply(text string, spans []models.Span, placeholder func(models.EntityType) string) string {
	if len(spans) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	cur := 0
	for _, s := range spans {
		if s.Start < cur || s.End > len(text) {
			continue
		}
		b.WriteString(text[cur:s.Start])
		b.WriteString(placeholder(s.EntityType))
		cur = s.End
	}
	b.WriteString(text[cur:])
	return b.String()
}
