package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(seed())

	list, err := repo.List(ctx)
	require.NoError(t, err)
	list[0].Highlights[0] = "changed"

	got, ok, err := repo.Get(ctx, "pandanus")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Aerial roots", got.Highlights[0])
}

func TestMemoryRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository(seed())

	require.NoError(t, repo.Upsert(ctx, catalog.Species{ID: "pandanus", CommonName: "Pandan"}))
	require.NoError(t, repo.Upsert(ctx, catalog.Species{ID: "new"}))

	list, _ := repo.List(ctx)
	require.Len(t, list, 3)
	assert.Equal(t, "Pandan", list[0].CommonName)
	assert.Equal(t, "new", list[2].ID)
}

func TestSeedFromCatalog(t *testing.T) {
	c := catalog.New(catalog.Dataset{
		Flora: []catalog.Record{catalog.Species{ID: "fern", Category: catalog.CategoryFlora}},
		Fauna: []catalog.Record{catalog.SpeciesRecord{
			ID:           "gecko",
			Type:         catalog.CategoryFauna,
			Taxonomy:     &catalog.Taxonomy{ScientificName: "Lepidodactylus lugubris"},
			Distribution: []catalog.Occurrence{{SiteID: "ridge", HabitatType: "forest"}},
		}},
	})

	list, err := SeedFromCatalog(c).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "fern", list[0].ID)
	assert.Equal(t, "Lepidodactylus lugubris", list[1].ScientificName)
	assert.Equal(t, "forest", list[1].Habitat)
}
