package nlp

import (
	"context"
	"strings"
	"sync"

	"github.com/savegress/cliniredact/internal/catalog"
	"github.com/savegress/cliniredact/internal/textutil"
)

// Annotator wraps an NLP provider and runs the deterministic post-pass that
// writes the provider and patient-role token annotations. The post-pass
// visits tokens sentence-ascending then token-ascending and is idempotent.
type Annotator struct {
	provider Provider
	titles   map[string]struct{}
	active   map[string]struct{}
	passive  map[string]struct{}

	// serialize guards providers that are not reentrant. The mutex covers
	// only the provider call, never the post-pass.
	serialize bool
	mu        sync.Mutex
}

// NewAnnotator builds an annotator over the given provider. Set serialize
// when the provider is not safe for concurrent use.
func NewAnnotator(p Provider, vocab *catalog.Vocabulary, serialize bool) *Annotator {
	return &Annotator{
		provider:  p,
		titles:    vocab.Titles,
		active:    vocab.ActiveVerbs,
		passive:   vocab.PassiveVerbs,
		serialize: serialize,
	}
}

// Annotate runs the provider and applies both annotation passes.
func (a *Annotator) Annotate(ctx context.Context, text string) (*Document, error) {
	var doc *Document
	var err error
	if a.serialize {
		a.mu.Lock()
		doc, err = a.provider.Annotate(ctx, text)
		a.mu.Unlock()
	} else {
		doc, err = a.provider.Annotate(ctx, text)
	}
	if err != nil {
		return nil, err
	}

	a.tagProviders(doc)
	a.tagPatientRoles(doc)
	return doc, nil
}

// tagProviders marks every token of a PERSON entity when the single token
// immediately preceding the entity is a healthcare title. Nothing is skipped:
// punctuation between title and name defeats the tag.
func (a *Annotator) tagProviders(doc *Document) {
	for _, e := range doc.Entities {
		if e.Label != LabelPerson || e.TokenStart == 0 {
			continue
		}
		prev := doc.Tokens[e.TokenStart-1]
		title := strings.TrimSuffix(textutil.Fold(prev.Text), ".")
		if _, ok := a.titles[title]; !ok {
			continue
		}
		for i := e.TokenStart; i < e.TokenEnd; i++ {
			doc.Provider[i] = true
		}
	}
}

// tagPatientRoles marks subjects of patient verbs. An active verb takes its
// nsubj child; a passive verb takes its nsubjpass child. Provider-tagged
// subjects are skipped, and a subject inside a PERSON entity spreads the role
// over the whole entity unless any entity token is provider-tagged.
func (a *Annotator) tagPatientRoles(doc *Document) {
	for i, tok := range doc.Tokens {
		var set map[string]struct{}
		switch tok.Dep {
		case DepSubject:
			set = a.active
		case DepPassiveSubject:
			set = a.passive
		default:
			continue
		}
		if tok.Head < 0 || tok.Head >= len(doc.Tokens) {
			continue
		}
		head := doc.Tokens[tok.Head]
		if !MatchesLemma(head.Lemma, textutil.Fold(head.Text), set) {
			continue
		}
		if doc.Provider[i] {
			continue
		}
		doc.Role[i] = RolePatient

		if ei, ok := doc.EntityContaining(i); ok {
			e := doc.Entities[ei]
			if e.Label == LabelPerson && !doc.EntityHasProvider(e) {
				for j := e.TokenStart; j < e.TokenEnd; j++ {
					doc.Role[j] = RolePatient
				}
			}
		}
	}
}
