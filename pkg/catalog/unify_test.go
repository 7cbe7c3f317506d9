package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnifySchemaDeduplicatesDistribution(t *testing.T) {
	rec := SpeciesRecord{
		ID:       "x",
		Type:     CategoryFauna,
		Taxonomy: &Taxonomy{ScientificName: "Genus species"},
		Status:   StatusEN,
		Distribution: []Occurrence{
			{SiteID: "A", HabitatType: "reef"},
			{SiteID: "A", HabitatType: "reef"},
			{SiteID: "B", HabitatType: "mangrove"},
		},
	}

	u := Unify(rec)
	assert.ElementsMatch(t, []string{"reef", "mangrove"}, u.Habitats)
	assert.ElementsMatch(t, []string{"A", "B"}, u.SiteIDs)
	assert.Equal(t, "Genus species", u.ScientificName)
	assert.Equal(t, CategoryFauna, u.Type)
}

func TestUnifyFlatWrapsHabitat(t *testing.T) {
	u := Unify(Species{ID: "f", Category: CategoryFlora, Habitat: "dune", Blurb: "Sand binder.", Status: StatusNT})

	assert.Equal(t, []string{"dune"}, u.Habitats)
	assert.Equal(t, "Sand binder.", u.Description)
	assert.Empty(t, u.SiteIDs)
	assert.NotNil(t, u.SiteIDs)
}

func TestUnifyToleratesMissingFields(t *testing.T) {
	u := Unify(SpeciesRecord{ID: "bare", Type: CategoryFauna})

	assert.Equal(t, "", u.ScientificName)
	assert.Empty(t, u.Habitats)
	assert.Empty(t, u.SiteIDs)
	assert.Equal(t, StatusDD, u.Status, "a missing status must not read as least concern")
	assert.Nil(t, u.Endemic)
}

func TestUnifyNormalizesStatusSpelling(t *testing.T) {
	assert.Equal(t, StatusCR, Unify(Species{ID: "a", Status: "Critically Endangered"}).Status)
	assert.Equal(t, StatusDD, Unify(Species{ID: "b", Status: "???"}).Status)
}

func TestUnifyPointerRecords(t *testing.T) {
	flat := &Species{ID: "p", Habitat: "marsh"}
	schema := &SpeciesRecord{ID: "q", Distribution: []Occurrence{{SiteID: "s", HabitatType: "marsh"}}}

	assert.Equal(t, "p", Unify(flat).ID)
	assert.Equal(t, []string{"s"}, Unify(schema).SiteIDs)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"CR", StatusCR, true},
		{" en ", StatusEN, true},
		{"near_threatened", StatusNT, true},
		{"Least Concern", StatusLC, true},
		{"data-deficient", StatusDD, true},
		{"extinct", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseStatus(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestStatusRank(t *testing.T) {
	for i, code := range SeverityOrder {
		assert.Equal(t, i, code.Rank())
	}
	assert.Equal(t, StatusDD.Rank(), Status("bogus").Rank())
	assert.Equal(t, "Vulnerable", StatusVU.Label())
}

func TestAsSpeciesFromSchema(t *testing.T) {
	rec := SpeciesRecord{
		ID:         "turtle",
		Type:       CategoryFauna,
		CommonName: "Green Turtle",
		Taxonomy:   &Taxonomy{ScientificName: "Chelonia mydas"},
		Status:     StatusEN,
		Distribution: []Occurrence{
			{SiteID: "bay", HabitatType: "seagrass"},
			{SiteID: "reef", HabitatType: "coral reef"},
			{SiteID: "bay", HabitatType: "seagrass"},
		},
		Highlights: []string{"Grazes seagrass"},
		Endemic:    Bool(true),
	}

	s := AsSpecies(rec)
	assert.Equal(t, "Chelonia mydas", s.ScientificName)
	assert.Equal(t, "seagrass", s.Habitat)
	assert.Equal(t, []string{"bay", "reef"}, s.SiteIDs)
	require.NotNil(t, s.Endemic)
	assert.True(t, *s.Endemic)

	s.Highlights[0] = "changed"
	assert.Equal(t, "Grazes seagrass", rec.Highlights[0])
}

func TestCloneSpeciesIsDeep(t *testing.T) {
	orig := Species{ID: "a", SiteIDs: []string{"x"}, Highlights: []string{"h"}, Images: []string{"i"}, Endemic: Bool(true)}
	cp := CloneSpecies(orig)

	cp.SiteIDs[0] = "y"
	cp.Highlights[0] = "g"
	cp.Images[0] = "j"
	*cp.Endemic = false

	assert.Equal(t, "x", orig.SiteIDs[0])
	assert.Equal(t, "h", orig.Highlights[0])
	assert.Equal(t, "i", orig.Images[0])
	assert.True(t, *orig.Endemic)
}
