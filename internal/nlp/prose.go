package nlp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"

	"github.com/savegress/cliniredact/internal/textutil"
)

// ProseProvider adapts the prose library to the Provider contract. prose
// supplies tokenization, POS tags, sentence segmentation and PERSON entities;
// byte offsets are recovered with a cursor scan, and the two subject
// dependency labels are derived by a deterministic shallow pass (prose has no
// dependency parser). Model loading happens lazily on first use.
type ProseProvider struct {
	once sync.Once
	err  error
}

// NewProseProvider returns an uninitialized provider; the prose model is
// loaded on the first Annotate call.
func NewProseProvider() *ProseProvider {
	return &ProseProvider{}
}

// Name returns the provider name.
func (p *ProseProvider) Name() string { return "prose" }

// Init forces model loading, reporting the error startup wants to surface.
func (p *ProseProvider) Init() error {
	p.once.Do(func() {
		if _, err := prose.NewDocument("ready"); err != nil {
			p.err = fmt.Errorf("nlp model load: %w", err)
		}
	})
	return p.err
}

// Annotate tokenizes and tags text, producing an offset-aligned document.
func (p *ProseProvider) Annotate(ctx context.Context, text string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.Init(); err != nil {
		return nil, err
	}

	pdoc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("nlp annotate: %w", err)
	}

	tokens := alignTokens(text, pdoc.Tokens())
	assignSentences(text, pdoc.Sentences(), tokens)
	entities := alignEntities(text, pdoc.Entities(), tokens)
	attachSubjects(tokens)

	return NewDocument(text, tokens, entities), nil
}

// alignTokens recovers byte offsets for prose tokens with a forward cursor.
// Tokens the cursor cannot locate (tokenizer normalization) are dropped.
func alignTokens(text string, ptoks []prose.Token) []Token {
	tokens := make([]Token, 0, len(ptoks))
	cur := 0
	for _, pt := range ptoks {
		if pt.Text == "" {
			continue
		}
		i := strings.Index(text[cur:], pt.Text)
		if i < 0 {
			continue
		}
		start := cur + i
		end := start + len(pt.Text)
		cur = end
		tokens = append(tokens, Token{
			Text:  pt.Text,
			Lemma: textutil.Fold(pt.Text),
			POS:   pt.Tag,
			Head:  -1,
			Start: start,
			End:   end,
		})
	}
	return tokens
}

// assignSentences maps sentence indices onto tokens by sentence start offset.
func assignSentences(text string, sents []prose.Sentence, tokens []Token) {
	bounds := make([]int, 0, len(sents))
	cur := 0
	for _, s := range sents {
		i := strings.Index(text[cur:], s.Text)
		if i < 0 {
			continue
		}
		bounds = append(bounds, cur+i)
		cur = cur + i + len(s.Text)
	}

	sent := 0
	for i := range tokens {
		for sent+1 < len(bounds) && tokens[i].Start >= bounds[sent+1] {
			sent++
		}
		tokens[i].Sent = sent
	}
}

// alignEntities recovers byte and token ranges for prose entity mentions.
func alignEntities(text string, pents []prose.Entity, tokens []Token) []Entity {
	entities := make([]Entity, 0, len(pents))
	cur := 0
	for _, pe := range pents {
		if pe.Text == "" {
			continue
		}
		i := strings.Index(text[cur:], pe.Text)
		if i < 0 {
			continue
		}
		start := cur + i
		end := start + len(pe.Text)
		cur = end

		ts, te := tokenRange(tokens, start, end)
		if ts < 0 {
			continue
		}
		entities = append(entities, Entity{
			Label:      pe.Label,
			Start:      start,
			End:        end,
			TokenStart: ts,
			TokenEnd:   te,
		})
	}
	return entities
}

// tokenRange returns the token index range covered by [start, end), or -1
// when no token falls inside it.
func tokenRange(tokens []Token, start, end int) (int, int) {
	first := -1
	last := -1
	for i, t := range tokens {
		if t.Start >= start && t.End <= end {
			if first < 0 {
				first = i
			}
			last = i
		}
		if t.Start >= end {
			break
		}
	}
	if first < 0 {
		return -1, -1
	}
	return first, last + 1
}

var beForms = map[string]struct{}{
	"be": {}, "is": {}, "am": {}, "are": {}, "was": {}, "were": {},
	"been": {}, "being": {},
}

// attachSubjects derives nsubj and nsubjpass edges. A VBN preceded within
// three tokens of the same sentence by a be-auxiliary is read as passive; any
// other finite verb is active. The subject is the nearest preceding nominal
// in the sentence. The first edge assigned to a subject wins.
func attachSubjects(tokens []Token) {
	for i, t := range tokens {
		if !strings.HasPrefix(t.POS, "VB") {
			continue
		}
		if _, ok := beForms[t.Lemma]; ok {
			continue
		}

		var dep string
		switch t.POS {
		case "VBN":
			if !precededByBe(tokens, i) {
				continue
			}
			dep = DepPassiveSubject
		case "VBD", "VBZ", "VBP":
			dep = DepSubject
		default:
			continue
		}

		subj := nearestNominal(tokens, i)
		if subj < 0 || tokens[subj].Dep != "" {
			continue
		}
		tokens[subj].Dep = dep
		tokens[subj].Head = i
	}
}

func precededByBe(tokens []Token, verb int) bool {
	for j := verb - 1; j >= 0 && j >= verb-3; j-- {
		if tokens[j].Sent != tokens[verb].Sent {
			return false
		}
		if _, ok := beForms[tokens[j].Lemma]; ok {
			return true
		}
	}
	return false
}

func nearestNominal(tokens []Token, verb int) int {
	for j := verb - 1; j >= 0; j-- {
		if tokens[j].Sent != tokens[verb].Sent {
			return -1
		}
		if strings.HasPrefix(tokens[j].POS, "NN") || tokens[j].POS == "PRP" {
			return j
		}
	}
	return -1
}
