package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

func sample() []catalog.UnifiedSpecies {
	return []catalog.UnifiedSpecies{
		{
			ID: "dugong", CommonName: "Dugong", ScientificName: "Dugong dugon",
			Status: catalog.StatusVU, Type: catalog.CategoryFauna,
			Habitats: []string{"seagrass", "lagoon"}, SiteIDs: []string{"seagrass-flats"},
		},
		{
			ID: "narra", CommonName: "Narra", Status: catalog.StatusEN, Type: catalog.CategoryFlora,
			Habitats: []string{}, SiteIDs: []string{}, Endemic: catalog.Bool(true),
		},
	}
}

func TestPrintSpecies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSpecies(&buf, sample(), "icthu", " | "))
	assert.Equal(t, "dugong | Dugong | VU | seagrass,lagoon | seagrass-flats\nnarra | Narra | EN |  | \n", buf.String())
}

func TestPrintSpeciesEndemicColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintSpecies(&buf, sample(), "ie", ","))
	assert.Equal(t, "dugong,\nnarra,endemic\n", buf.String())
}

func TestInvalidFlag(t *testing.T) {
	var buf bytes.Buffer
	err := PrintSpecies(&buf, sample(), "iz", " ")
	assert.ErrorIs(t, err, ErrInvalidFlag)
	assert.Empty(t, buf.String(), "nothing printed on a bad flag")

	assert.ErrorIs(t, ValidateFlags(""), ErrInvalidFlag)
	assert.NoError(t, ValidateFlags(DefaultFlags))
}
