package recognizers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/savegress/cliniredact/internal/namecache"
	"github.com/savegress/cliniredact/internal/nlp/nlptest"
	"github.com/savegress/cliniredact/internal/recognizers"
	"github.com/savegress/cliniredact/pkg/models"
)

var noStops = map[string]struct{}{}

func TestPassTwoNotInitialized(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	doc := annotate(t, &nlptest.Provider{}, "Smith was seen again.")

	spans, discarded, err := p.Recognize(context.Background(), doc, namecache.New())
	require.NoError(t, err)
	require.Empty(t, spans)
	require.Zero(t, discarded)
}

func TestPassTwoFullNameMatch(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("Jane Doe", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Later jane DOE returned for bloodwork.")
	spans, _, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)

	var full []models.Span
	for _, s := range spans {
		if s.RuleName == "namecache_full" {
			full = append(full, s)
		}
	}
	require.Len(t, full, 1)
	require.Equal(t, "jane DOE", doc.Text[full[0].Start:full[0].End])
	require.InDelta(t, 0.95, full[0].Score, 1e-9)
}

func TestPassTwoFullNameRespectsWordBoundaries(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("Jane Doe", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Maryjane Doe is unrelated.")
	spans, _, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)
	for _, s := range spans {
		require.NotEqual(t, "namecache_full", s.RuleName, "partial-token hit must not match")
	}
}

func TestPassTwoNamePartMatch(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("John Smith", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Smith returned the next day.")
	spans, discarded, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)
	require.Zero(t, discarded)
	require.Len(t, spans, 1)
	require.Equal(t, "Smith", doc.Text[spans[0].Start:spans[0].End])
	require.Equal(t, "namecache_part", spans[0].RuleName)
	require.InDelta(t, 0.85, spans[0].Score, 1e-9)
}

func TestPassTwoTitleLookbehindDiscards(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("Smith", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Seen by Dr. Smith on rounds.")
	spans, discarded, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)
	require.Empty(t, spans)
	require.Equal(t, 1, discarded)
}

func TestPassTwoLongerPartsMatchFirst(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("John Johnston", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Johnston came back alone.")
	spans, _, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)
	require.Len(t, spans, 1)
	require.Equal(t, "Johnston", doc.Text[spans[0].Start:spans[0].End],
		"longer alternative must not be shadowed by its prefix")
}

func TestPassTwoSingleWordNamesSkipTierA(t *testing.T) {
	c := loadCatalog(t)
	p := recognizers.NewPassTwo(c.Vocab())
	cache := namecache.New()
	cache.Add("Smith", noStops)

	doc := annotate(t, &nlptest.Provider{}, "Smith was discharged.")
	spans, _, err := p.Recognize(context.Background(), doc, cache)
	require.NoError(t, err)
	for _, s := range spans {
		require.Equal(t, "namecache_part", s.RuleName,
			"single-word names go through Tier B and its safety check")
	}
	require.NotEmpty(t, spans)
}
