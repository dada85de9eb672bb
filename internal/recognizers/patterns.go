package recognizers

import (
	"context"
	"unicode/utf8"

	"github.com/savegress/cliniredact/internal/catalog"
	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/textutil"
	"github.com/savegress/cliniredact/internal/validators"
	"github.com/savegress/cliniredact/pkg/models"
)

// contextWindow is the lookbehind length, in bytes, used for keyword checks
// around pattern matches.
const contextWindow = 30

// contextBoost is added to a pattern score when supporting context is found.
const contextBoost = 0.05

// patternRecognizer emits one span per non-empty regex match for a single
// entity type.
type patternRecognizer struct {
	entity   models.EntityType
	patterns []catalog.Pattern
}

func (r *patternRecognizer) Name() string {
	return string(r.entity) + "_patterns"
}

func (r *patternRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []models.Span
	for _, p := range r.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(doc.Text, -1) {
			if loc[0] == loc[1] {
				continue
			}
			spans = append(spans, models.Span{
				Start:      loc[0],
				End:        loc[1],
				EntityType: r.entity,
				Score:      p.Score,
				RuleName:   p.Name,
			})
		}
	}
	return spans, nil
}

// creditCardRecognizer applies the configured patterns plus the hard
// constraints on card numbers: 13 to 19 digits ignoring separators, leading
// digit in {3,4,5,6}, and a passing Luhn check. Nearby billing vocabulary
// raises the score.
type creditCardRecognizer struct {
	patterns []catalog.Pattern
	context  []string
}

func (r *creditCardRecognizer) Name() string { return "credit_card" }

func (r *creditCardRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var spans []models.Span
	for _, p := range r.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(doc.Text, -1) {
			match := doc.Text[loc[0]:loc[1]]
			digits, ok := validators.Digits(match)
			if !ok || len(digits) < 13 || len(digits) > 19 {
				continue
			}
			switch digits[0] {
			case '3', '4', '5', '6':
			default:
				continue
			}
			if !validators.Luhn(digits) {
				continue
			}

			score := p.Score
			if hasKeywordBehind(doc.Text, loc[0], r.context) {
				score = boost(score)
			}
			spans = append(spans, models.Span{
				Start:      loc[0],
				End:        loc[1],
				EntityType: models.EntityCreditCard,
				Score:      score,
				RuleName:   p.Name,
			})
		}
	}
	return spans, nil
}

// healthNumberRecognizer applies the configured patterns for one province and
// drops every match its validator rejects. A province keyword anywhere in the
// document raises the score, which settles the cross-province ambiguity of
// bare digit runs.
type healthNumberRecognizer struct {
	entity   models.EntityType
	patterns []catalog.Pattern
	keywords []string
}

func (r *healthNumberRecognizer) Name() string {
	return string(r.entity) + "_patterns"
}

func (r *healthNumberRecognizer) Recognize(ctx context.Context, doc *nlp.Document) ([]models.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folded := textutil.Fold(doc.Text)
	keywordSeen := false
	for _, kw := range r.keywords {
		if textutil.ContainsWholeWord(folded, kw) {
			keywordSeen = true
			break
		}
	}

	var spans []models.Span
	for _, p := range r.patterns {
		for _, loc := range p.Regexp.FindAllStringIndex(doc.Text, -1) {
			match := doc.Text[loc[0]:loc[1]]
			if !validators.ValidHealthNumber(r.entity, match) {
				continue
			}
			score := p.Score
			if keywordSeen {
				score = boost(score)
			}
			spans = append(spans, models.Span{
				Start:      loc[0],
				End:        loc[1],
				EntityType: r.entity,
				Score:      score,
				RuleName:   p.Name,
			})
		}
	}
	return spans, nil
}

func boost(score float64) float64 {
	score += contextBoost
	if score > 1 {
		score = 1
	}
	return score
}

// hasKeywordBehind reports whether any keyword occurs as a whole word in the
// casefolded lookbehind window before offset.
func hasKeywordBehind(text string, offset int, keywords []string) bool {
	window := textutil.Fold(lookbehind(text, offset, contextWindow))
	for _, kw := range keywords {
		if textutil.ContainsWholeWord(window, kw) {
			return true
		}
	}
	return false
}

// lookbehind returns up to n bytes before offset, clamped to the text start
// and adjusted backward to a rune boundary.
func lookbehind(text string, offset, n int) string {
	start := offset - n
	if start < 0 {
		start = 0
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	return text[start:offset]
}
