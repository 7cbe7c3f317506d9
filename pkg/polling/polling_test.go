package polling

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/storage"
)

const sitesDoc = `{"sites":[{"id":"reef","name":"Reef","type":"marine","lat":1,"lng":2}]}`

const floraDoc = `{"flora":[{"id":"narra","commonName":"Narra","status":"EN","siteIds":["reef"]}]}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFetchMergesInSourceOrder(t *testing.T) {
	dir := t.TempDir()
	sources := []string{
		writeFile(t, dir, "sites.json", sitesDoc),
		writeFile(t, dir, "flora.json", floraDoc),
		writeFile(t, dir, "more.yaml", "flora:\n  - id: molave\n    commonName: Molave\n"),
	}

	ds, err := Fetch(context.Background(), nil, sources, 2)
	require.NoError(t, err)
	require.Len(t, ds.Sites, 1)
	require.Len(t, ds.Flora, 2)
	assert.Equal(t, "narra", ds.Flora[0].RecordID())
	assert.Equal(t, "molave", ds.Flora[1].RecordID())
}

func TestFetchReportsEveryFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := Fetch(context.Background(), nil, []string{
		filepath.Join(dir, "a.json"),
		writeFile(t, dir, "ok.json", sitesDoc),
		filepath.Join(dir, "b.json"),
	}, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.json")
	assert.Contains(t, err.Error(), "b.json")
}

func TestLoadValidatesMergedDataset(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "flora.json", floraDoc)
	_, err := Load(context.Background(), nil, []string{src, src}, 1)
	assert.ErrorContains(t, err, "duplicate")
}

func TestPollWithoutDB(t *testing.T) {
	res, err := Poll(context.Background(), Config{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Catalog.UnifiedSpecies(), "embedded dataset")
	assert.Empty(t, res.Changes)
	assert.Len(t, res.Fingerprint, 64)
}

func TestPollImportsIntoDB(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "biodex.sqlite")
	db, err := storage.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	cfg := Config{DB: db, LockPath: dbPath}
	first, err := Poll(ctx, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Changes)
	assert.Equal(t, len(first.Catalog.UnifiedSpecies()), len(first.Changes)-len(first.Catalog.Sites()))

	second, err := Poll(ctx, cfg)
	require.NoError(t, err)
	assert.Empty(t, second.Changes)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)

	// A source with no species must not wipe the stored ones.
	cfg.Sources = []string{writeFile(t, dir, "empty.json", `{"sites":[]}`)}
	_, err = Poll(ctx, cfg)
	assert.ErrorIs(t, err, ErrEmptyDataset)
	stats, err := db.GetStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.Flora+stats.Fauna, minKeptSpecies)
}

func TestRunCallsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	src := writeFile(t, dir, "flora.json", floraDoc)
	base, err := Poll(context.Background(), Config{Sources: []string{src}})
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []*catalog.Catalog
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{
			Sources:  []string{src},
			Interval: 10 * time.Millisecond,
			OnChange: func(c *catalog.Catalog, _ []storage.Change) {
				mu.Lock()
				seen = append(seen, c)
				mu.Unlock()
			},
		}, base.Fingerprint)
	}()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Empty(t, seen, "unchanged content is not reported")
	mu.Unlock()

	writeFile(t, dir, "flora.json", `{"flora":[{"id":"molave","commonName":"Molave"}]}`)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	mu.Lock()
	defer mu.Unlock()
	_, ok := seen[0].FindSpeciesByID("molave")
	assert.True(t, ok)
}

func TestRunRejectsBadInterval(t *testing.T) {
	assert.Error(t, Run(context.Background(), Config{}, ""))
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "embedded", SourceName(nil))
	assert.Equal(t, "a.json,embedded", SourceName([]string{"a.json", ""}))
}
