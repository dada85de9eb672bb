// Package nlptest provides a scripted NLP provider for tests. Tokenization
// and sentence splitting are deterministic; PERSON entities and subject
// dependency edges are declared by the test instead of inferred, so pipeline
// behavior can be exercised without the real model.
package nlptest

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/textutil"
)

// Edge declares a subject dependency: in every sentence containing a token
// matching Verb, the nearest preceding token matching Subject receives the
// Label ("nsubj" or "nsubjpass") with the verb as head.
type Edge struct {
	Subject string
	Verb    string
	Label   string
}

// Provider is a scripted nlp.Provider. Persons lists surface forms marked as
// PERSON entities at every word-boundary occurrence; longer forms claim
// overlapping shorter ones.
type Provider struct {
	Persons []string
	Edges   []Edge
	Err     error
}

// Name returns the provider name.
func (p *Provider) Name() string { return "nlptest" }

// Annotate builds the scripted document.
func (p *Provider) Annotate(ctx context.Context, text string) (*nlp.Document, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := tokenize(text)
	entities := p.markPersons(text, tokens)
	p.applyEdges(tokens)
	return nlp.NewDocument(text, tokens, entities), nil
}

// abbreviations keep a following period attached to the word token.
var abbreviations = map[string]struct{}{
	"dr": {}, "mr": {}, "mrs": {}, "ms": {}, "prof": {}, "pt": {},
	"st": {}, "no": {}, "vs": {},
}

func tokenize(text string) []nlp.Token {
	var tokens []nlp.Token
	sent := 0
	i := 0
	for i < len(text) {
		r, w := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(r):
			i += w
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			start := i
			for i < len(text) {
				r2, w2 := utf8.DecodeRuneInString(text[i:])
				if !unicode.IsLetter(r2) && !unicode.IsDigit(r2) && r2 != '\'' {
					break
				}
				i += w2
			}
			end := i
			word := text[start:end]
			if i < len(text) && text[i] == '.' {
				if _, ok := abbreviations[textutil.Fold(word)]; ok {
					i++
					end = i
					word = text[start:end]
				}
			}
			tokens = append(tokens, nlp.Token{
				Text:  word,
				Lemma: textutil.Fold(word),
				POS:   "NN",
				Head:  -1,
				Sent:  sent,
				Start: start,
				End:   end,
			})
		default:
			tokens = append(tokens, nlp.Token{
				Text:  text[i : i+w],
				Lemma: text[i : i+w],
				POS:   ".",
				Head:  -1,
				Sent:  sent,
				Start: i,
				End:   i + w,
			})
			if r == '.' || r == '!' || r == '?' {
				sent++
			}
			i += w
		}
	}
	return tokens
}

// markPersons turns every word-boundary occurrence of each declared person
// form into a PERSON entity, longest forms first.
func (p *Provider) markPersons(text string, tokens []nlp.Token) []nlp.Entity {
	persons := append([]string(nil), p.Persons...)
	sort.Slice(persons, func(i, j int) bool { return len(persons[i]) > len(persons[j]) })

	var entities []nlp.Entity
	claimed := func(start, end int) bool {
		for _, e := range entities {
			if start < e.End && e.Start < end {
				return true
			}
		}
		return false
	}

	for _, name := range persons {
		if name == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(text[from:], name)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(name)
			from = start + 1
			before, _ := utf8.DecodeLastRuneInString(text[:start])
			after, _ := utf8.DecodeRuneInString(text[end:])
			if (start != 0 && textutil.IsWordRune(before)) || (end != len(text) && textutil.IsWordRune(after)) {
				continue
			}
			if claimed(start, end) {
				continue
			}
			ts, te := tokenSpan(tokens, start, end)
			if ts < 0 {
				continue
			}
			entities = append(entities, nlp.Entity{
				Label:      nlp.LabelPerson,
				Start:      start,
				End:        end,
				TokenStart: ts,
				TokenEnd:   te,
			})
		}
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })
	return entities
}

func tokenSpan(tokens []nlp.Token, start, end int) (int, int) {
	first, last := -1, -1
	for i, t := range tokens {
		if t.Start >= start && t.Start < end {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return -1, -1
	}
	return first, last + 1
}

func (p *Provider) applyEdges(tokens []nlp.Token) {
	for _, e := range p.Edges {
		verb := textutil.Fold(e.Verb)
		subject := textutil.Fold(e.Subject)
		for vi, vt := range tokens {
			if vt.Lemma != verb {
				continue
			}
			for si := vi - 1; si >= 0; si-- {
				if tokens[si].Sent != vt.Sent {
					break
				}
				if tokens[si].Lemma == subject {
					tokens[si].Dep = e.Label
					tokens[si].Head = vi
					break
				}
			}
		}
	}
}
