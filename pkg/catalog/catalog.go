package catalog

// Catalog is the single read API over both record stores. It is immutable
// once built and safe for concurrent readers.
type Catalog struct {
	sites []Site
	flora []Record
	fauna []Record
}

// New builds a catalog over ds. The slices are copied; later changes to ds
// do not leak in.
func New(ds Dataset) *Catalog {
	c := &Catalog{
		sites: make([]Site, 0, len(ds.Sites)),
		flora: make([]Record, len(ds.Flora)),
		fauna: make([]Record, len(ds.Fauna)),
	}
	for _, s := range ds.Sites {
		c.sites = append(c.sites, cloneSite(s))
	}
	copy(c.flora, ds.Flora)
	copy(c.fauna, ds.Fauna)
	return c
}

// UnifiedSpecies returns every flora record followed by every fauna record,
// each in source order.
func (c *Catalog) UnifiedSpecies() []UnifiedSpecies {
	out := make([]UnifiedSpecies, 0, len(c.flora)+len(c.fauna))
	for _, r := range c.flora {
		out = append(out, Unify(r))
	}
	for _, r := range c.fauna {
		out = append(out, Unify(r))
	}
	return out
}

// Records returns the original records, flora first.
func (c *Catalog) Records() []Record {
	out := make([]Record, 0, len(c.flora)+len(c.fauna))
	out = append(out, c.flora...)
	return append(out, c.fauna...)
}

// FindSpeciesByID returns the record in its original shape.
func (c *Catalog) FindSpeciesByID(id string) (Record, bool) {
	for _, r := range c.flora {
		if r.RecordID() == id {
			return r, true
		}
	}
	for _, r := range c.fauna {
		if r.RecordID() == id {
			return r, true
		}
	}
	return nil, false
}

func (c *Catalog) FindSiteByID(id string) (Site, bool) {
	for _, s := range c.sites {
		if s.ID == id {
			return cloneSite(s), true
		}
	}
	return Site{}, false
}

// Sites returns the sites in authoring order.
func (c *Catalog) Sites() []Site {
	out := make([]Site, len(c.sites))
	for i, s := range c.sites {
		out[i] = cloneSite(s)
	}
	return out
}

// SiteIDs lists every known site id in authoring order.
func (c *Catalog) SiteIDs() []string {
	out := make([]string, len(c.sites))
	for i, s := range c.sites {
		out[i] = s.ID
	}
	return out
}

// SitesForSpecies resolves a species' site ids. Ids without a site are
// skipped.
func (c *Catalog) SitesForSpecies(id string) []Site {
	r, ok := c.FindSpeciesByID(id)
	if !ok {
		return []Site{}
	}
	out := []Site{}
	for _, siteID := range Unify(r).SiteIDs {
		if s, ok := c.FindSiteByID(siteID); ok {
			out = append(out, s)
		}
	}
	return out
}

// SpeciesAtSite lists every species recorded at siteID.
func (c *Catalog) SpeciesAtSite(siteID string) []UnifiedSpecies {
	out := []UnifiedSpecies{}
	for _, u := range c.UnifiedSpecies() {
		if u.HasSite(siteID) {
			out = append(out, u)
		}
	}
	return out
}

// HighlightSpecies resolves a site's flagship species in the site's order.
func (c *Catalog) HighlightSpecies(siteID string) []UnifiedSpecies {
	out := []UnifiedSpecies{}
	site, ok := c.FindSiteByID(siteID)
	if !ok {
		return out
	}
	for _, id := range dedupeStrings(site.HighlightSpecies) {
		if r, ok := c.FindSpeciesByID(id); ok {
			out = append(out, Unify(r))
		}
	}
	return out
}

// Reference is an id that points at nothing.
type Reference struct {
	FromKind string `json:"from_kind"` // species | site
	FromID   string `json:"from_id"`
	TargetID string `json:"target_id"`
}

// DanglingReferences reports species->site and site->highlight ids that do
// not resolve.
func (c *Catalog) DanglingReferences() []Reference {
	var out []Reference
	known := make(map[string]struct{}, len(c.sites))
	for _, s := range c.sites {
		known[s.ID] = struct{}{}
	}
	for _, u := range c.UnifiedSpecies() {
		for _, siteID := range u.SiteIDs {
			if _, ok := known[siteID]; !ok {
				out = append(out, Reference{FromKind: "species", FromID: u.ID, TargetID: siteID})
			}
		}
	}
	for _, s := range c.sites {
		for _, id := range s.HighlightSpecies {
			if _, ok := c.FindSpeciesByID(id); !ok {
				out = append(out, Reference{FromKind: "site", FromID: s.ID, TargetID: id})
			}
		}
	}
	return out
}

// Stats summarizes the catalog contents.
type Stats struct {
	Sites      int            `json:"sites"`
	Flora      int            `json:"flora"`
	Fauna      int            `json:"fauna"`
	Endemic    int            `json:"endemic"`
	ByStatus   map[Status]int `json:"by_status"`
	BySiteType map[string]int `json:"by_site_type"`
}

func (c *Catalog) Stats() Stats {
	st := Stats{
		Sites:      len(c.sites),
		Flora:      len(c.flora),
		Fauna:      len(c.fauna),
		ByStatus:   make(map[Status]int, len(SeverityOrder)),
		BySiteType: make(map[string]int),
	}
	for _, code := range SeverityOrder {
		st.ByStatus[code] = 0
	}
	for _, u := range c.UnifiedSpecies() {
		st.ByStatus[u.Status]++
		if u.IsEndemic() {
			st.Endemic++
		}
	}
	for _, s := range c.sites {
		st.BySiteType[string(s.Type)]++
	}
	return st
}
