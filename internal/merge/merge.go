// Package merge resolves overlapping candidate spans into the final
// non-overlapping, start-ordered sequence.
package merge

import (
	"sort"

	"github.com/savegress/cliniredact/pkg/models"
)

// Pass ranks for candidates; pass 1 beats pass 2 unconditionally.
const (
	PassOne = 1
	PassTwo = 2
)

// Candidate is a span tagged with the pass that produced it.
type Candidate struct {
	models.Span
	Pass int
}

// Resolve applies the precedence order (pass ascending, score descending,
// length descending, start ascending, rule name ascending) and sweeps,
// rejecting every candidate that intersects an already accepted span. The
// result is sorted ascending by start.
func Resolve(candidates []Candidate) []models.Span {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Pass != b.Pass {
			return a.Pass < b.Pass
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Length() != b.Length() {
			return a.Length() > b.Length()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.RuleName < b.RuleName
	})

	accepted := make([]models.Span, 0, len(ordered))
	for _, c := range ordered {
		if overlapsAny(accepted, c.Span) {
			continue
		}
		accepted = append(accepted, c.Span)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Start < accepted[j].Start })
	return accepted
}

func overlapsAny(spans []models.Span, s models.Span) bool {
	for _, a := range spans {
		if a.Overlaps(s) {
			return true
		}
	}
	return false
}
