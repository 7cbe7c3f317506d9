package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/dataset"
)

func editCommand(t *testing.T, create bool, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "test"}
	addEditFlags(c, create)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func TestApplyEditFlagsOnlyTouchesGivenFlags(t *testing.T) {
	ctx := context.Background()
	repo := admin.NewMemoryRepository([]catalog.Species{{
		ID: "narra", Category: catalog.CategoryFlora, CommonName: "Narra", ScientificName: "Pterocarpus indicus",
		Status: catalog.StatusEN, SiteIDs: []string{"ridge"},
		Highlights: []string{"national tree", "hardwood", "yellow flowers"}, Images: []string{},
	}})
	ed := admin.NewEditor(repo, []string{"ridge", "forest"}, nil)
	require.NoError(t, ed.BeginEditByID(ctx, "narra"))

	c := editCommand(t, false,
		"--status", "vulnerable",
		"--toggle-site", "ridge,forest",
		"--remove-highlight", "0", "--remove-highlight", "2",
		"--add-highlight", "shade tree",
		"--endemic", "true",
	)
	require.NoError(t, applyEditFlags(c, ed))
	saved, err := ed.Save(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Pterocarpus indicus", saved.ScientificName, "untouched field kept")
	assert.Equal(t, catalog.StatusVU, saved.Status)
	assert.Equal(t, []string{"forest"}, saved.SiteIDs)
	assert.Equal(t, []string{"hardwood", "shade tree"}, saved.Highlights)
	assert.True(t, *saved.Endemic)
}

func TestApplyEditFlagsRejectsBadValues(t *testing.T) {
	ed := admin.NewEditor(admin.NewMemoryRepository(nil), []string{"ridge"}, nil)
	ed.BeginCreate()

	err := applyEditFlags(editCommand(t, true, "--status", "extinct"), ed)
	assert.ErrorIs(t, err, admin.ErrInvalidValue)

	err = applyEditFlags(editCommand(t, true, "--toggle-site", "atlantis"), ed)
	assert.ErrorIs(t, err, admin.ErrUnknownSite)
}

func TestEditFlagSets(t *testing.T) {
	create := editCommand(t, true)
	assert.NotNil(t, create.Flags().Lookup("id"))
	assert.Nil(t, create.Flags().Lookup("remove-image"))

	edit := editCommand(t, false)
	assert.Nil(t, edit.Flags().Lookup("id"), "edits cannot rename")
	assert.NotNil(t, edit.Flags().Lookup("remove-image"))
}

func TestPromptConfirm(t *testing.T) {
	s := catalog.Species{ID: "dugong", CommonName: "Dugong"}
	for answer, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"\n":    false,
		"n\n":   false,
		"":      false,
	} {
		var out bytes.Buffer
		got := promptConfirm(strings.NewReader(answer), &out)(s)
		assert.Equal(t, want, got, "answer %q", answer)
		assert.Equal(t, "Delete dugong (Dugong)? [y/N] ", out.String())
	}
}

func TestOpenDB(t *testing.T) {
	dir := t.TempDir()

	_, err := openDB(filepath.Join(dir, "missing.sqlite"), false)
	assert.ErrorContains(t, err, "database file not found")

	db, err := openDB(filepath.Join(dir, "nested", "biodex.sqlite"), true)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = openDB(filepath.Join(dir, "nested", "biodex.sqlite"), false)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestAdminListFilters(t *testing.T) {
	ctx := context.Background()
	db, err := openDB(filepath.Join(t.TempDir(), "biodex.sqlite"), true)
	require.NoError(t, err)
	defer db.Close()
	ds, err := dataset.Default()
	require.NoError(t, err)
	_, err = db.ImportDataset(ctx, ds, dataset.DefaultSource)
	require.NoError(t, err)

	list := func(args ...string) []string {
		t.Helper()
		c := &cobra.Command{Use: "list"}
		c.Flags().String("category", "", "")
		c.Flags().String("status", "", "")
		c.Flags().String("name", "", "")
		require.NoError(t, c.ParseFlags(args))
		got, err := listStored(ctx, db, adminListOptions(c))
		require.NoError(t, err)
		ids := make([]string, 0, len(got))
		for _, s := range got {
			ids = append(ids, s.ID)
		}
		return ids
	}

	assert.Equal(t, []string{"red-mangrove", "grey-mangrove"}, list("--name", "MANGROVE"))
	assert.Empty(t, list("--category", "fauna", "--name", "mangrove"))
	assert.Len(t, list(), 18)
	assert.Len(t, list("--category", "all"), 18)

	c := &cobra.Command{Use: "list"}
	c.Flags().String("category", "", "")
	c.Flags().String("status", "", "")
	c.Flags().String("name", "", "")
	require.NoError(t, c.ParseFlags([]string{"--status", "extinct"}))
	_, err = listStored(ctx, db, adminListOptions(c))
	assert.ErrorContains(t, err, "unknown status")
}
