package recognizers

import (
	"context"
	"regexp"
	"strings"

	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/textutil"
	"github.com/savegress/cliniredact/pkg/models"
)

// Stage scores for the three patient-name recognizers.
const (
	scorePatientPattern = 0.95
	scorePatientContext = 0.90
	scorePatientRole    = 0.85
)

// patientContextWindow is the lookbehind, in bytes, for stage-3 keyword
// checks before a PERSON entity.
const patientContextWindow = 30

// patientPatternRecognizer (stage 1) matches explicit form labels such as
// "Patient Name:" and emits the name that follows, up to end of line or
// sentence punctuation.
type patientPatternRecognizer struct {
	label *regexp.Regexp
}

func newPatientPatternRecognizer() *patientPatternRecognizer {
	return &patientPatternRecognizer{
		label: regexp.MustCompile(`(?i)\b(?:patient|pt)\.?\s+name\s*:[ \t]*`),
	}
}

func (r *patientPatternRecognizer) Name() string { return "patient_name_label" }

func (r *patientPatternRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []models.Span
	for _, loc := range r.label.FindAllStringIndex(doc.Text, -1) {
		start := loc[1]
		end := start
		for end < len(doc.Text) {
			c := doc.Text[end]
			if c == '\n' || c == '\r' || c == '.' || c == ',' || c == ';' || c == ':' {
				break
			}
			end++
		}
		name := strings.TrimRight(doc.Text[start:end], " \t")
		if name == "" {
			continue
		}
		spans = append(spans, models.Span{
			Start:      start,
			End:        start + len(name),
			EntityType: models.EntityPatientName,
			Score:      scorePatientPattern,
			RuleName:   r.Name(),
		})
	}
	return spans, nil
}

// patientRoleRecognizer (stage 2) emits a span for every PERSON entity that
// carries the patient role and no provider tag.
type patientRoleRecognizer struct{}

func (r *patientRoleRecognizer) Name() string { return "patient_role" }

func (r *patientRoleRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []models.Span
	for _, e := range doc.Entities {
		if e.Label != nlp.LabelPerson {
			continue
		}
		if doc.EntityHasProvider(e) || !doc.EntityHasRole(e, nlp.RolePatient) {
			continue
		}
		spans = append(spans, models.Span{
			Start:      e.Start,
			End:        e.End,
			EntityType: models.EntityPatientName,
			Score:      scorePatientRole,
			RuleName:   r.Name(),
		})
	}
	return spans, nil
}

// patientContextRecognizer (stage 3) emits a span for every PERSON entity
// with no provider tag whose lookbehind window contains a patient context
// keyword as a whole word.
type patientContextRecognizer struct {
	keywords []string
}

func (r *patientContextRecognizer) Name() string { return "patient_context" }

func (r *patientContextRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []models.Span
	for _, e := range doc.Entities {
		if e.Label != nlp.LabelPerson || doc.EntityHasProvider(e) {
			continue
		}
		window := textutil.Fold(lookbehind(doc.Text, e.Start, patientContextWindow))
		for _, kw := range r.keywords {
			if textutil.ContainsWholeWord(window, kw) {
				spans = append(spans, models.Span{
					Start:      e.Start,
					End:        e.End,
					EntityType: models.EntityPatientName,
					Score:      scorePatientContext,
					RuleName:   r.Name(),
				})
				break
			}
		}
	}
	return spans, nil
}
