package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/whttp"
)

func TestDefaultDatasetIsValidAndConsistent(t *testing.T) {
	ds, err := Load(context.Background(), "")
	require.NoError(t, err)

	assert.NotEmpty(t, ds.Sites)
	assert.NotEmpty(t, ds.Flora)
	assert.NotEmpty(t, ds.Fauna)

	c := catalog.New(ds)
	assert.Empty(t, c.DanglingReferences(), "embedded data references only known ids")

	// Both record shapes are present.
	_, flat := ds.Flora[0].(catalog.Species)
	_, schema := ds.Fauna[0].(catalog.SpeciesRecord)
	assert.True(t, flat)
	assert.True(t, schema)
}

func TestDefaultDatasetStripsMarkup(t *testing.T) {
	ds, err := Default()
	require.NoError(t, err)

	for _, s := range ds.Sites {
		assert.NotContains(t, s.Description, "<", "site %s", s.ID)
	}
	rec, ok := catalog.New(ds).FindSpeciesByID("tape-seagrass")
	require.True(t, ok)
	assert.Equal(t,
		"The largest seagrass in the bay, with ribbon leaves up to a metre long. Pollinated at the water surface during spring low tides.",
		rec.(catalog.Species).Blurb)
}

func TestDefaultDatasetNormalizesLongStatus(t *testing.T) {
	ds, err := Default()
	require.NoError(t, err)

	rec, ok := catalog.New(ds).FindSpeciesByID("hawksbill-turtle")
	require.True(t, ok)
	assert.Equal(t, catalog.StatusCR, rec.(catalog.SpeciesRecord).Status)
}

func TestLoadYAMLSingleStore(t *testing.T) {
	ds, err := Load(context.Background(), filepath.Join("testdata", "schema.yaml"))
	require.NoError(t, err)

	require.Len(t, ds.Sites, 2)
	assert.Equal(t, "Outer reef & channel", ds.Sites[0].Summary)

	require.Len(t, ds.Flora, 1)
	require.Len(t, ds.Fauna, 2)

	shark, ok := ds.Fauna[0].(catalog.SpeciesRecord)
	require.True(t, ok, "taxonomy block selects the schema shape")
	assert.Equal(t, catalog.StatusVU, shark.Status)

	fig, ok := ds.Flora[0].(catalog.Species)
	require.True(t, ok)
	assert.Equal(t, catalog.Status(""), fig.Status)

	c := catalog.New(ds)
	u := c.UnifiedSpecies()
	byID := map[string]catalog.UnifiedSpecies{}
	for _, s := range u {
		byID[s.ID] = s
	}
	assert.Equal(t, []string{"reef slope"}, byID["reef-shark"].Habitats)
	assert.Equal(t, []string{"old-wood"}, byID["strangler-fig"].SiteIDs)
	assert.Equal(t, catalog.StatusDD, byID["strangler-fig"].Status)
	assert.True(t, byID["tarsier"].IsEndemic())

	assert.Equal(t, []catalog.Reference{{FromKind: "species", FromID: "tarsier", TargetID: "missing-site"}}, c.DanglingReferences())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	ds, err := (&Loader{}).LoadUnchecked(context.Background(), filepath.Join("testdata", "invalid.json"))
	require.NoError(t, err)

	err = Validate(ds)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	problems := Problems(err)
	assert.Len(t, problems, 6)
	assert.Contains(t, err.Error(), `site "a": latitude 91 out of range`)
	assert.Contains(t, err.Error(), `site "a": duplicate id`)
	assert.Contains(t, err.Error(), `unknown site type "volcanic"`)
	assert.Contains(t, err.Error(), "flora[0]: missing id")
	assert.Contains(t, err.Error(), `species "fern": unknown status "EX"`)
	assert.Contains(t, err.Error(), `species "fern": duplicate id`)

	_, err = Load(context.Background(), filepath.Join("testdata", "invalid.json"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadRejectsMalformedDocuments(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join("testdata", "notjson.json"))
	assert.Error(t, err)

	_, err = Parse([]byte(`[1, 2]`), FormatJSON)
	assert.Error(t, err)

	_, err = Parse([]byte("sites: [\n"), FormatYAML)
	assert.Error(t, err)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFromURL(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "schema.yaml"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, whttp.USER_AGENT, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := &Loader{Client: whttp.NewClient(0, 5*time.Second)}
	ds, err := l.Load(context.Background(), srv.URL+"/dataset")
	require.NoError(t, err)
	assert.Len(t, ds.Sites, 2)
}

func TestLoadFromURLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := &Loader{Client: whttp.NewClient(0, 5*time.Second)}
	_, err := l.Load(context.Background(), srv.URL+"/dataset.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "no markup here", PlainText("no markup here"))
	assert.Equal(t, "One. Two.", PlainText("<p>One.</p><p>Two.</p>"))
	assert.Equal(t, "a & b", PlainText("a &amp; b"))
	assert.Equal(t, "line one line two", PlainText("line one<br>line two"))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("x.YML"))
	assert.Equal(t, FormatYAML, FormatFor("dir/x.yaml"))
	assert.Equal(t, FormatJSON, FormatFor("x.json"))
	assert.Equal(t, FormatJSON, FormatFor("x"))
}
