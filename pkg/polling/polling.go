// Package polling loads datasets from one or more sources and keeps a
// catalog, and optionally the database, in step with them.
package polling

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/dataset"
	"github.com/sw33tLie/biodex/pkg/storage"
)

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// ErrEmptyDataset is returned when a poll yields no species while the
// database holds more than minKeptSpecies of them.
var ErrEmptyDataset = errors.New("refusing to replace a populated database with an empty dataset")

const minKeptSpecies = 10

// Config holds everything Poll and Run need.
type Config struct {
	Sources     []string        // empty selects the embedded dataset
	Loader      *dataset.Loader // optional
	Concurrency int             // defaults to 4 if <= 0
	Interval    time.Duration   // Run only
	Log         Logger          // optional; nil = no logging

	// DB, when set, is made to mirror each new dataset. LockPath names the
	// file whose writer lock is held during the import.
	DB       *storage.DB
	LockPath string

	// OnChange is called by Run with the new catalog whenever a poll finds
	// different content.
	OnChange func(c *catalog.Catalog, changes []storage.Change)
}

// Result holds the outcome of one poll.
type Result struct {
	Catalog     *catalog.Catalog
	Changes     []storage.Change
	Fingerprint string
}

// SourceName labels a set of sources in logs and the change log.
func SourceName(sources []string) string {
	if len(sources) == 0 {
		return dataset.DefaultSource
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = dataset.SourceName(s)
	}
	return strings.Join(names, ",")
}

// Fetch reads every source concurrently without validating and merges them
// in source order.
func Fetch(ctx context.Context, loader *dataset.Loader, sources []string, concurrency int) (catalog.Dataset, error) {
	if loader == nil {
		loader = &dataset.Loader{}
	}
	if len(sources) == 0 {
		sources = []string{dataset.DefaultSource}
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	parts := make([]catalog.Dataset, len(sources))
	errs := make([]error, len(sources))
	idxChan := make(chan int, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < concurrency && i < len(sources); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxChan {
				parts[idx], errs[idx] = loader.LoadUnchecked(ctx, sources[idx])
			}
		}()
	}
	for i := range sources {
		idxChan <- i
	}
	close(idxChan)
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return catalog.Dataset{}, err
	}
	var out catalog.Dataset
	for _, p := range parts {
		out.Sites = append(out.Sites, p.Sites...)
		out.Flora = append(out.Flora, p.Flora...)
		out.Fauna = append(out.Fauna, p.Fauna...)
	}
	return out, nil
}

// Load fetches and validates the merged dataset.
func Load(ctx context.Context, loader *dataset.Loader, sources []string, concurrency int) (catalog.Dataset, error) {
	ds, err := Fetch(ctx, loader, sources, concurrency)
	if err != nil {
		return catalog.Dataset{}, err
	}
	if err := dataset.Validate(ds); err != nil {
		return catalog.Dataset{}, err
	}
	return ds, nil
}

// Poll loads the sources once. With a DB configured the dataset is imported
// and the catalog is rebuilt from what was stored.
func Poll(ctx context.Context, cfg Config) (*Result, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	ds, err := Load(ctx, cfg.Loader, cfg.Sources, cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	fingerprint, err := Fingerprint(ds)
	if err != nil {
		return nil, err
	}
	result := &Result{Fingerprint: fingerprint}

	if cfg.DB == nil {
		result.Catalog = catalog.New(ds)
		return result, nil
	}

	// Safety check: an empty answer from a source should not wipe the
	// stored species.
	if len(ds.Flora)+len(ds.Fauna) == 0 {
		stats, err := cfg.DB.GetStats(ctx)
		if err != nil {
			log.Warnf("Could not count stored species: %v", err)
		} else if stored := stats.Flora + stats.Fauna; stored > minKeptSpecies {
			log.Errorf("%s returned 0 species, but the database has %d. Aborting import to prevent data loss.", SourceName(cfg.Sources), stored)
			return nil, ErrEmptyDataset
		}
	}

	importFn := func() error {
		changes, err := cfg.DB.ImportDataset(ctx, ds, SourceName(cfg.Sources))
		if err != nil {
			return err
		}
		result.Changes = changes
		return nil
	}
	if cfg.LockPath != "" {
		err = utils.WithDBLock(cfg.LockPath, importFn)
	} else {
		err = importFn()
	}
	if err != nil {
		return nil, err
	}

	stored, err := cfg.DB.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	result.Catalog = catalog.New(stored)
	return result, nil
}

// Run polls every cfg.Interval until ctx is cancelled, calling OnChange when
// the content differs from the previous poll. The first poll only records a
// baseline. Failed polls are logged and retried on the next tick.
func Run(ctx context.Context, cfg Config, baseline string) error {
	if cfg.Interval <= 0 {
		return fmt.Errorf("invalid poll interval %s", cfg.Interval)
	}
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	last := baseline
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		res, err := Poll(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warnf("Polling %s failed: %v", SourceName(cfg.Sources), err)
			continue
		}
		if res.Fingerprint == last && len(res.Changes) == 0 {
			log.Debugf("No changes in %s", SourceName(cfg.Sources))
			continue
		}
		last = res.Fingerprint
		log.Infof("Dataset %s changed (%d stored changes)", SourceName(cfg.Sources), len(res.Changes))
		if cfg.OnChange != nil {
			cfg.OnChange(res.Catalog, res.Changes)
		}
	}
}

// Fingerprint hashes the dataset content.
func Fingerprint(ds catalog.Dataset) (string, error) {
	data, err := json.Marshal(struct {
		Sites []catalog.Site
		Flora []catalog.Record
		Fauna []catalog.Record
	}{ds.Sites, ds.Flora, ds.Fauna})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
