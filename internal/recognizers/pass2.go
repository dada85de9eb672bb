package recognizers

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/savegress/cliniredact/internal/catalog"
	"github.com/savegress/cliniredact/internal/namecache"
	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/textutil"
	"github.com/savegress/cliniredact/pkg/models"
)

// Pass-2 scores and the title lookbehind window for the provider safety
// check, in bytes.
const (
	scoreFullName   = 0.95
	scoreNamePart   = 0.85
	titleLookbehind = 15
)

// PassTwo is the document-local dictionary recognizer. Tier A scans the
// canonicalized document with an Aho-Corasick automaton built from the
// cache's multi-word full names; Tier B compiles one alternation regex over
// the name parts, longest first, and discards hits whose lookbehind window
// contains a healthcare title. Single-word full names are left to Tier B so
// every bare-surname hit passes the provider safety check.
type PassTwo struct {
	titles map[string]struct{}
}

// NewPassTwo builds the pass-2 recognizer from the catalog vocabulary.
func NewPassTwo(vocab *catalog.Vocabulary) *PassTwo {
	return &PassTwo{titles: vocab.Titles}
}

// Name identifies the recognizer in logs and fault reports.
func (p *PassTwo) Name() string { return "namecache" }

// Recognize runs both tiers against the populated cache, returning candidate
// spans and the number of Tier B hits discarded by the safety check.
func (p *PassTwo) Recognize(ctx context.Context, doc *nlp.Document, cache *namecache.Cache) ([]models.Span, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if !cache.Initialized() {
		return nil, 0, nil
	}

	spans, err := p.fullNameSpans(doc, cache)
	if err != nil {
		return nil, 0, err
	}
	partSpans, discarded, err := p.namePartSpans(doc, cache)
	if err != nil {
		return nil, 0, err
	}
	return append(spans, partSpans...), discarded, nil
}

// fullNameSpans is Tier A: whole-text occurrences of multi-word full names.
func (p *PassTwo) fullNameSpans(doc *nlp.Document, cache *namecache.Cache) ([]models.Span, error) {
	var terms []string
	for _, name := range cache.FullNames() {
		term := textutil.CanonicalTerm(name)
		if strings.Contains(term, " ") {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}

	ac, err := ahocorasick.NewBuilder().
		AddStrings(terms).
		SetMatchKind(ahocorasick.LeftmostLongest).
		SetPrefilter(true).
		Build()
	if err != nil {
		return nil, fmt.Errorf("name automaton: %w", err)
	}

	canon := textutil.Canonicalize(doc.Text)
	var spans []models.Span
	for _, m := range ac.FindAllOverlapping([]byte(canon.Text)) {
		if !canon.AtTokenBoundary(m.Start, m.End) {
			continue
		}
		start, end := canon.OrigRange(m.Start, m.End)
		if start >= end {
			continue
		}
		spans = append(spans, models.Span{
			Start:      start,
			End:        end,
			EntityType: models.EntityPatientName,
			Score:      scoreFullName,
			RuleName:   "namecache_full",
		})
	}
	return spans, nil
}

// namePartSpans is Tier B: a per-request alternation regex over the cached
// name parts, longest alternatives first so longer parts are not shadowed by
// their prefixes.
func (p *PassTwo) namePartSpans(doc *nlp.Document, cache *namecache.Cache) ([]models.Span, int, error) {
	parts := cache.Parts()
	if len(parts) == 0 {
		return nil, 0, nil
	}
	sort.Slice(parts, func(i, j int) bool {
		if len(parts[i]) != len(parts[j]) {
			return len(parts[i]) > len(parts[j])
		}
		return parts[i] < parts[j]
	})

	quoted := make([]string, len(parts))
	for i, part := range parts {
		quoted[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, 0, fmt.Errorf("name part regex: %w", err)
	}

	var spans []models.Span
	discarded := 0
	for _, loc := range re.FindAllStringIndex(doc.Text, -1) {
		window := textutil.Fold(lookbehind(doc.Text, loc[0], titleLookbehind))
		if p.titleInWindow(window) {
			discarded++
			continue
		}
		spans = append(spans, models.Span{
			Start:      loc[0],
			End:        loc[1],
			EntityType: models.EntityPatientName,
			Score:      scoreNamePart,
			RuleName:   "namecache_part",
		})
	}
	return spans, discarded, nil
}

func (p *PassTwo) titleInWindow(window string) bool {
	for title := range p.titles {
		if textutil.ContainsWholeWord(window, title) {
			return true
		}
	}
	return false
}
