package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/savegress/cliniredact/internal/engine"
	"github.com/savegress/cliniredact/internal/nlp"
	"github.com/savegress/cliniredact/internal/nlp/nlptest"
	"github.com/savegress/cliniredact/pkg/models"
)

func newEngine(t *testing.T, provider nlp.Provider) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.Options{Provider: provider})
	require.NoError(t, err)
	return eng
}

// checkInvariants asserts the structural guarantees every result carries:
// spans in bounds, disjoint, sorted, and the text outside spans untouched.
func checkInvariants(t *testing.T, res *models.RedactionResult) {
	t.Helper()
	prevEnd := 0
	for _, s := range res.Spans {
		require.True(t, s.Start < s.End, "span %v must be non-empty", s)
		require.True(t, s.Start >= 0 && s.End <= len(res.Original), "span %v out of bounds", s)
		require.True(t, s.Start >= prevEnd, "spans must be sorted and disjoint: %v", res.Spans)
		require.True(t, s.EntityType.Valid(), "unknown entity type %q", s.EntityType)
		prevEnd = s.End
	}

	// rebuild redacted from original + spans and compare
	rebuilt := ""
	cur := 0
	for _, s := range res.Spans {
		rebuilt += res.Original[cur:s.Start] + "<" + string(s.EntityType) + ">"
		cur = s.End
	}
	rebuilt += res.Original[cur:]
	require.Equal(t, rebuilt, res.Redacted)

	require.Equal(t, len(res.Spans), res.Metadata.Count)
	require.Equal(t, engine.EngineName, res.Metadata.EngineName)
}

func TestScenarioProviderPreserved(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"John Smith"},
		Edges:   []nlptest.Edge{{Subject: "Smith", Verb: "examined", Label: nlp.DepSubject}},
	}
	eng := newEngine(t, provider)

	res, err := eng.Redact(context.Background(), "Dr. John Smith examined the patient.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "Dr. John Smith examined the patient.", res.Redacted)
	require.Empty(t, res.Spans)
}

func TestScenarioActivePatientVerb(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"John Smith"},
		Edges:   []nlptest.Edge{{Subject: "Smith", Verb: "complained", Label: nlp.DepSubject}},
	}
	eng := newEngine(t, provider)

	res, err := eng.Redact(context.Background(), "The patient John Smith complained of chest pain.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "The patient <PATIENT_NAME> complained of chest pain.", res.Redacted)
}

func TestScenarioPassTwoFillsLaterMentions(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"Smith"},
		Edges: []nlptest.Edge{
			{Subject: "Smith", Verb: "treated", Label: nlp.DepSubject},
			{Subject: "Smith", Verb: "discharged", Label: nlp.DepPassiveSubject},
		},
	}
	eng := newEngine(t, provider)

	res, err := eng.Redact(context.Background(), "Dr. Smith treated patient Smith. Smith was discharged.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "Dr. Smith treated patient <PATIENT_NAME>. <PATIENT_NAME> was discharged.", res.Redacted)
}

func TestScenarioFormLineAndIdentifiers(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	res, err := eng.Redact(context.Background(), "Patient Name: Jane Doe. DOB: 1980-05-12. HCN 1234-567-897-XY.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "Patient Name: <PATIENT_NAME>. DOB: <DOB>. HCN <ON_HCN>.", res.Redacted)
}

func TestScenarioPassiveVoiceAndProviderLookbehind(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"Jane", "Jane Roe"},
		Edges: []nlptest.Edge{
			{Subject: "Jane", Verb: "admitted", Label: nlp.DepPassiveSubject},
			{Subject: "Roe", Verb: "referred", Label: nlp.DepSubject},
		},
	}
	eng := newEngine(t, provider)

	res, err := eng.Redact(context.Background(), "Jane was admitted after Dr. Jane Roe referred her.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "<PATIENT_NAME> was admitted after Dr. Jane Roe referred her.", res.Redacted)
}

func TestScenarioCreditCardAndExpiry(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	res, err := eng.Redact(context.Background(), "Card 4111 1111 1111 1111 expires 01/30.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "Card <CREDIT_CARD> expires <DOB>.", res.Redacted)
}

func TestEmptyInputRejected(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	_, err := eng.Redact(context.Background(), "")
	require.ErrorIs(t, err, engine.ErrInvalidInput)
}

func TestProviderFailureIsInternal(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{Err: errors.New("model exploded")})

	_, err := eng.Redact(context.Background(), "some text")
	require.ErrorIs(t, err, engine.ErrInternal)
	require.NotContains(t, err.Error(), "some text", "input must never be echoed")
}

func TestCancelledContext(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.Redact(ctx, "Patient Name: Jane Doe.")
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, res, "no partial result on cancellation")
}

func TestLuhnFailingHealthNumberNotEmitted(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	res, err := eng.Redact(context.Background(), "HCN 1234-567-890 invalid checksum.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "HCN 1234-567-890 invalid checksum.", res.Redacted)
}

func TestPassTwoAddsNoOverlappingSpans(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"John Smith"},
		Edges:   []nlptest.Edge{{Subject: "Smith", Verb: "complained", Label: nlp.DepSubject}},
	}
	eng := newEngine(t, provider)

	res, err := eng.Redact(context.Background(), "The patient John Smith complained. Later John Smith and Smith returned.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, "The patient <PATIENT_NAME> complained. Later <PATIENT_NAME> and <PATIENT_NAME> returned.", res.Redacted)
}

func TestDeterministicOutput(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"Jane Doe"},
		Edges:   []nlptest.Edge{{Subject: "Doe", Verb: "admitted", Label: nlp.DepPassiveSubject}},
	}
	eng := newEngine(t, provider)
	text := "Jane Doe was admitted. Contact jane@x.ca or 416-555-1234. Jane Doe left."

	first, err := eng.Redact(context.Background(), text)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := eng.Redact(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, first.Redacted, again.Redacted)
		require.Equal(t, first.Spans, again.Spans)
	}
}

func TestConcurrentCallsDoNotShareState(t *testing.T) {
	provider := &nlptest.Provider{
		Persons: []string{"Jane Doe", "John Smith"},
		Edges: []nlptest.Edge{
			{Subject: "Doe", Verb: "admitted", Label: nlp.DepPassiveSubject},
			{Subject: "Smith", Verb: "complained", Label: nlp.DepSubject},
		},
	}
	eng := newEngine(t, provider)

	inputs := []string{
		"Jane Doe was admitted overnight. Jane Doe rested.",
		"The patient John Smith complained of nausea. Smith slept.",
		"Patient Name: Alex Chen. MRN: 0045821.",
	}

	sequential := make([]*models.RedactionResult, len(inputs))
	for i, text := range inputs {
		res, err := eng.Redact(context.Background(), text)
		require.NoError(t, err)
		sequential[i] = res
	}

	var wg sync.WaitGroup
	const rounds = 20
	results := make([][]*models.RedactionResult, rounds)
	for r := 0; r < rounds; r++ {
		r := r
		results[r] = make([]*models.RedactionResult, len(inputs))
		for i, text := range inputs {
			i, text := i, text
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := eng.Redact(context.Background(), text)
				if err == nil {
					results[r][i] = res
				}
			}()
		}
	}
	wg.Wait()

	for r := 0; r < rounds; r++ {
		for i := range inputs {
			require.NotNil(t, results[r][i])
			require.Equal(t, sequential[i].Redacted, results[r][i].Redacted,
				"concurrent run differed from sequential for input %d", i)
			require.Equal(t, sequential[i].Spans, results[r][i].Spans)
		}
	}
}

func TestMetadataTypeCounts(t *testing.T) {
	eng := newEngine(t, &nlptest.Provider{})

	res, err := eng.Redact(context.Background(), "Email a@b.ca and c@d.ca; call 416-555-1234.")
	require.NoError(t, err)
	checkInvariants(t, res)
	require.Equal(t, 2, res.Metadata.Types[models.EntityEmail])
	require.Equal(t, 1, res.Metadata.Types[models.EntityPhone])
}
