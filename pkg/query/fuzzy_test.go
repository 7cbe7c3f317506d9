package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

func searchFixture() []catalog.UnifiedSpecies {
	return []catalog.UnifiedSpecies{
		{
			ID:             "heron",
			CommonName:     "Striated Heron",
			ScientificName: "Butorides striata",
			Status:         catalog.StatusLC,
			Type:           catalog.CategoryFauna,
			Description:    "Stalks fish along the reef flat at low tide.",
			Habitats:       []string{"mudflat"},
			SiteIDs:        []string{"bay"},
		},
		{
			ID:             "turtle",
			CommonName:     "Hawksbill Turtle",
			ScientificName: "Eretmochelys imbricata",
			Status:         catalog.StatusCR,
			Type:           catalog.CategoryFauna,
			Description:    "Feeds on sponges.",
			Habitats:       []string{"coral reef"},
			SiteIDs:        []string{"reef"},
		},
		{
			ID:             "reefheron",
			CommonName:     "Pacific Reef Heron",
			ScientificName: "Egretta sacra",
			Status:         catalog.StatusLC,
			Type:           catalog.CategoryFauna,
			Description:    "Dark and white morphs occur.",
			Habitats:       []string{"rocky shore"},
			SiteIDs:        []string{"reef"},
		},
		{
			ID:             "mangrove",
			CommonName:     "Red Mangrove",
			ScientificName: "Rhizophora mucronata",
			Status:         catalog.StatusLC,
			Type:           catalog.CategoryFlora,
			Description:    "Stilt roots shelter juvenile fish.",
			Habitats:       []string{"mangrove"},
			SiteIDs:        []string{"bay"},
		},
	}
}

func TestMatchSubstringInName(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "turtle"})
	require.Len(t, got, 1)
	assert.Equal(t, "turtle", got[0].ID)
}

func TestMatchIsCaseInsensitive(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "ERETMOCHELYS"})
	require.Len(t, got, 1)
	assert.Equal(t, "turtle", got[0].ID)
}

func TestMatchToleratesTypos(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "mangrobe"})
	require.NotEmpty(t, got)
	assert.Equal(t, "mangrove", got[0].ID)

	got = Search(searchFixture(), Options{Query: "hawksbil turtel"})
	require.NotEmpty(t, got)
	assert.Equal(t, "turtle", got[0].ID)
}

func TestMatchPartialTokens(t *testing.T) {
	// Not a substring and too far for edit distance; only a subsequence.
	got := Search(searchFixture(), Options{Query: "hwksbl"})
	require.NotEmpty(t, got)
	assert.Equal(t, "turtle", got[0].ID)
}

func TestMatchSearchesHabitatsAndDescription(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "sponges"})
	require.Len(t, got, 1)
	assert.Equal(t, "turtle", got[0].ID)

	got = Search(searchFixture(), Options{Query: "mudflat"})
	require.Len(t, got, 1)
	assert.Equal(t, "heron", got[0].ID)
}

func TestMatchNoHits(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "qqqqxx"})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMatchRelevanceBeforeCollectionOrder(t *testing.T) {
	e := New(DefaultThreshold)

	// "heron" names two records; the description-only hit on "reef" must
	// trail the name hit.
	got := e.Match(searchFixture(), "reef")
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, "reefheron", got[0].ID, "name match outranks habitat and description matches")
	assert.Contains(t, ids(got), "heron")
	assert.Contains(t, ids(got), "turtle")
}

func TestSearchSeverityOverridesRelevance(t *testing.T) {
	got := Search(searchFixture(), Options{Query: "reef"})
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, "turtle", got[0].ID, "CR sorts ahead of LC regardless of relevance")
	// Among the LC records the relevance order survives the stable sort.
	assert.Equal(t, "reefheron", got[1].ID)
}

func TestThresholdZeroDisablesTypos(t *testing.T) {
	e := New(0)
	got := e.Search(searchFixture(), Options{Query: "mangrobe"})
	assert.Empty(t, got)
}

func TestAllowedEdits(t *testing.T) {
	e := New(DefaultThreshold)
	assert.Equal(t, 0, e.allowedEdits("cat"))
	assert.Equal(t, 1, e.allowedEdits("reef"))
	assert.Equal(t, 2, e.allowedEdits("turtle"))
	assert.Equal(t, 2, e.allowedEdits("mangrobe"))
}
