package nlp

import (
	"testing"

	"github.com/jdkato/prose/v2"
)

func TestAlignTokens(t *testing.T) {
	text := "Dr. Smith arrived."
	ptoks := []prose.Token{
		{Text: "Dr.", Tag: "NNP"},
		{Text: "Smith", Tag: "NNP"},
		{Text: "arrived", Tag: "VBD"},
		{Text: ".", Tag: "."},
	}

	tokens := alignTokens(text, ptoks)
	if len(tokens) != 4 {
		t.Fatalf("got %d tokens", len(tokens))
	}
	for _, tok := range tokens {
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %q misaligned: offsets give %q", tok.Text, text[tok.Start:tok.End])
		}
	}
}

func TestAlignTokensRepeatedSurface(t *testing.T) {
	text := "Smith saw Smith."
	ptoks := []prose.Token{
		{Text: "Smith", Tag: "NNP"},
		{Text: "saw", Tag: "VBD"},
		{Text: "Smith", Tag: "NNP"},
		{Text: ".", Tag: "."},
	}

	tokens := alignTokens(text, ptoks)
	if tokens[0].Start != 0 || tokens[2].Start != 10 {
		t.Errorf("repeated surfaces misaligned: %+v", tokens)
	}
}

func TestAssignSentences(t *testing.T) {
	text := "One here. Two there."
	ptoks := []prose.Token{
		{Text: "One"}, {Text: "here"}, {Text: "."},
		{Text: "Two"}, {Text: "there"}, {Text: "."},
	}
	tokens := alignTokens(text, ptoks)
	assignSentences(text, []prose.Sentence{{Text: "One here."}, {Text: "Two there."}}, tokens)

	for i, want := range []int{0, 0, 0, 1, 1, 1} {
		if tokens[i].Sent != want {
			t.Errorf("token %d sentence = %d, want %d", i, tokens[i].Sent, want)
		}
	}
}

func TestAlignEntities(t *testing.T) {
	text := "Seen by John Smith today."
	ptoks := []prose.Token{
		{Text: "Seen"}, {Text: "by"}, {Text: "John"}, {Text: "Smith"}, {Text: "today"}, {Text: "."},
	}
	tokens := alignTokens(text, ptoks)
	entities := alignEntities(text, []prose.Entity{{Text: "John Smith", Label: "PERSON"}}, tokens)

	if len(entities) != 1 {
		t.Fatalf("got %d entities", len(entities))
	}
	e := entities[0]
	if text[e.Start:e.End] != "John Smith" {
		t.Errorf("entity bytes = %q", text[e.Start:e.End])
	}
	if e.TokenStart != 2 || e.TokenEnd != 4 {
		t.Errorf("entity token range = [%d,%d)", e.TokenStart, e.TokenEnd)
	}
}

func TestAttachSubjectsActive(t *testing.T) {
	text := "Smith complained loudly."
	ptoks := []prose.Token{
		{Text: "Smith", Tag: "NNP"},
		{Text: "complained", Tag: "VBD"},
		{Text: "loudly", Tag: "RB"},
		{Text: ".", Tag: "."},
	}
	tokens := alignTokens(text, ptoks)
	attachSubjects(tokens)

	if tokens[0].Dep != DepSubject || tokens[0].Head != 1 {
		t.Errorf("expected nsubj(complained, Smith), got dep=%q head=%d", tokens[0].Dep, tokens[0].Head)
	}
}

func TestAttachSubjectsPassive(t *testing.T) {
	text := "Jane was admitted overnight."
	ptoks := []prose.Token{
		{Text: "Jane", Tag: "NNP"},
		{Text: "was", Tag: "VBD"},
		{Text: "admitted", Tag: "VBN"},
		{Text: "overnight", Tag: "RB"},
		{Text: ".", Tag: "."},
	}
	tokens := alignTokens(text, ptoks)
	attachSubjects(tokens)

	if tokens[0].Dep != DepPassiveSubject || tokens[0].Head != 2 {
		t.Errorf("expected nsubjpass(admitted, Jane), got dep=%q head=%d", tokens[0].Dep, tokens[0].Head)
	}
}

func TestAttachSubjectsBareParticipleIsNotPassive(t *testing.T) {
	text := "The chart admitted errors."
	ptoks := []prose.Token{
		{Text: "The", Tag: "DT"},
		{Text: "chart", Tag: "NN"},
		{Text: "admitted", Tag: "VBN"},
		{Text: "errors", Tag: "NNS"},
		{Text: ".", Tag: "."},
	}
	tokens := alignTokens(text, ptoks)
	attachSubjects(tokens)

	if tokens[1].Dep == DepPassiveSubject {
		t.Error("participle without a be-auxiliary should not yield nsubjpass")
	}
}
