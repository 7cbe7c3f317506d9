package query

import (
	"sort"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// DefaultThreshold is the share of a query token's length that may be
// edited and still count as a match.
const DefaultThreshold = 0.3

// Engine runs searches. The zero value uses no typo tolerance; use New for
// the default threshold.
type Engine struct {
	Threshold float64
}

func New(threshold float64) *Engine {
	if threshold < 0 {
		threshold = 0
	}
	return &Engine{Threshold: threshold}
}

var defaultEngine = New(DefaultThreshold)

// Search runs opts over species with the default engine.
func Search(species []catalog.UnifiedSpecies, opts Options) []catalog.UnifiedSpecies {
	return defaultEngine.Search(species, opts)
}

// Search applies, in order: fuzzy text match, status, type, site and
// endemic filters, then a stable sort by severity. The result is never nil
// and shares no slices with the input.
func (e *Engine) Search(species []catalog.UnifiedSpecies, opts Options) []catalog.UnifiedSpecies {
	opts = opts.Normalized()

	base := species
	if opts.Query != "" {
		base = e.Match(species, opts.Query)
	}

	out := make([]catalog.UnifiedSpecies, 0, len(base))
	for _, u := range base {
		if opts.Status != "" && string(u.Status) != opts.Status {
			continue
		}
		if opts.Type != "" && string(u.Type) != opts.Type {
			continue
		}
		if opts.Site != "" && !u.HasSite(opts.Site) {
			continue
		}
		if opts.EndemicOnly && !u.IsEndemic() {
			continue
		}
		out = append(out, copyUnified(u))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Status.Rank() < out[j].Status.Rank()
	})
	return out
}

func copyUnified(u catalog.UnifiedSpecies) catalog.UnifiedSpecies {
	u.Habitats = append(make([]string, 0, len(u.Habitats)), u.Habitats...)
	u.SiteIDs = append(make([]string, 0, len(u.SiteIDs)), u.SiteIDs...)
	if u.Endemic != nil {
		u.Endemic = catalog.Bool(*u.Endemic)
	}
	return u
}
