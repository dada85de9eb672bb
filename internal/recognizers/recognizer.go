// Package recognizers implements the pass-1 candidate detectors and the
// pass-2 dictionary recognizer. Each recognizer is independent: it reads the
// annotated document and emits spans without touching any other recognizer's
// state.
package recognizers

import (
	"context"

	"github.com/savegress/cliniredact/internal/catalog"
	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/pkg/models"
)

// Recognizer produces candidate spans from an annotated document.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error)
}

// Registry builds the flat, ordered pass-1 recognizer list for a catalog:
// one pattern recognizer per configured non-name entity type, then the three
// patient-name stages.
func Registry(c *catalog.Catalog) []Recognizer {
	var out []Recognizer
	for _, t := range c.PatternTypes() {
		patterns := c.Patterns(t)
		if len(patterns) == 0 {
			continue
		}
		switch {
		case t == models.EntityPatientName:
			// patient names are handled by the staged recognizers below
		case t == models.EntityCreditCard:
			out = append(out, &creditCardRecognizer{
				patterns: patterns,
				context:  c.Vocab().CCContext,
			})
		case isHealthNumber(t):
			out = append(out, &healthNumberRecognizer{
				entity:   t,
				patterns: patterns,
				keywords: c.ProvinceKeywords(t),
			})
		default:
			out = append(out, &patternRecognizer{entity: t, patterns: patterns})
		}
	}

	vocab := c.Vocab()
	out = append(out,
		newPatientPatternRecognizer(),
		&patientRoleRecognizer{},
		&patientContextRecognizer{keywords: vocab.ContextKeywords},
	)
	return out
}

func isHealthNumber(t models.EntityType) bool {
	for _, ht := range models.HealthNumberTypes() {
		if t == ht {
			return true
		}
	}
	return false
}
