// Package textutil provides the casefolding and canonicalization helpers
// shared by the annotator, the name cache and the recognizers.
package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Fold returns the Unicode case-folded form of s. A fresh caser is created
// per call; cases.Caser values are stateful and not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// IsWordRune reports whether r belongs inside a word for boundary checks.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ContainsWholeWord reports whether word occurs in haystack delimited by
// non-word runes or the text edges. Both arguments are compared as given;
// casefold them first for case-insensitive checks.
func ContainsWholeWord(haystack, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(haystack[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		before, _ := utf8.DecodeLastRuneInString(haystack[:start])
		after, _ := utf8.DecodeRuneInString(haystack[end:])
		if (start == 0 || !IsWordRune(before)) && (end == len(haystack) || !IsWordRune(after)) {
			return true
		}
		from = start + 1
	}
}

// CanonicalDoc is a lowercased, separator-collapsed rendering of a text with
// a per-byte mapping back to the original. Letters and digits are kept
// (lowercased); every other run of characters becomes a single space. The
// same canonical form is applied to dictionary patterns and to the document,
// so matches in canonical space translate directly to original byte ranges.
type CanonicalDoc struct {
	Text string
	// origIdx[i] is the original byte offset of the character that produced
	// canonical byte i; a final entry holds len(original).
	origIdx []int
}

// Canonicalize builds the canonical rendering of text.
func Canonicalize(text string) *CanonicalDoc {
	var b strings.Builder
	b.Grow(len(text))
	idx := make([]int, 0, len(text)+1)

	lastWasSpace := true
	for pos, r := range text {
		lower := unicode.ToLower(r)
		if unicode.IsLetter(lower) || unicode.IsDigit(lower) {
			n := utf8.RuneLen(lower)
			b.WriteRune(lower)
			for i := 0; i < n; i++ {
				idx = append(idx, pos)
			}
			lastWasSpace = false
		} else if !lastWasSpace {
			b.WriteByte(' ')
			idx = append(idx, pos)
			lastWasSpace = true
		}
	}
	idx = append(idx, len(text))

	return &CanonicalDoc{Text: b.String(), origIdx: idx}
}

// CanonicalTerm canonicalizes a dictionary term the same way Canonicalize
// treats the document, trimming the trailing separator space.
func CanonicalTerm(s string) string {
	doc := Canonicalize(s)
	return strings.TrimRight(doc.Text, " ")
}

// OrigRange maps a canonical byte range back to original byte offsets.
func (d *CanonicalDoc) OrigRange(start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > len(d.origIdx)-1 {
		end = len(d.origIdx) - 1
	}
	return d.origIdx[start], d.origIdx[end]
}

// AtTokenBoundary reports whether [start, end) sits on canonical token
// boundaries, i.e. is delimited by spaces or the text edges.
func (d *CanonicalDoc) AtTokenBoundary(start, end int) bool {
	if start > 0 && d.Text[start-1] != ' ' {
		return false
	}
	if end < len(d.Text) && d.Text[end] != ' ' {
		return false
	}
	return true
}
