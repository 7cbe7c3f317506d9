// Package catalog holds the site and species records of the biodiversity
// dataset and the adapter that normalizes them into one searchable shape.
package catalog

// Category tells flora and fauna apart.
type Category string

const (
	CategoryFlora Category = "flora"
	CategoryFauna Category = "fauna"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryFlora || c == CategoryFauna
}

// SiteType classifies a site's ecosystem.
type SiteType string

const (
	SiteMarine      SiteType = "marine"
	SiteTerrestrial SiteType = "terrestrial"
	SiteFreshwater  SiteType = "freshwater"
	SiteMixed       SiteType = "mixed"
)

func (t SiteType) Valid() bool {
	switch t {
	case SiteMarine, SiteTerrestrial, SiteFreshwater, SiteMixed:
		return true
	}
	return false
}

// Site is a named place of ecological interest.
type Site struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Type             SiteType `json:"type" yaml:"type"`
	Lat              float64  `json:"lat" yaml:"lat"`
	Lng              float64  `json:"lng" yaml:"lng"`
	AreaHectares     *float64 `json:"areaHectares,omitempty" yaml:"areaHectares,omitempty"`
	Summary          string   `json:"summary" yaml:"summary"`
	Description      string   `json:"description" yaml:"description"`
	Features         []string `json:"features" yaml:"features"`
	Designation      string   `json:"designation" yaml:"designation"`
	Stewardship      string   `json:"stewardship" yaml:"stewardship"`
	VisitorNotes     string   `json:"visitorNotes,omitempty" yaml:"visitorNotes,omitempty"`
	HighlightSpecies []string `json:"highlightSpecies,omitempty" yaml:"highlightSpecies,omitempty"`
}

// Record is either a flat Species or a schema SpeciesRecord. The set of
// implementations is closed; Unify switches over both.
type Record interface {
	RecordID() string
	RecordCategory() Category
	isRecord()
}

// Species is the flat "hotspot" record shape, also the shape the admin
// surface edits.
type Species struct {
	ID             string   `json:"id" yaml:"id"`
	Category       Category `json:"category" yaml:"category"`
	CommonName     string   `json:"commonName" yaml:"commonName"`
	ScientificName string   `json:"scientificName" yaml:"scientificName"`
	Status         Status   `json:"status" yaml:"status"`
	Habitat        string   `json:"habitat" yaml:"habitat"`
	Blurb          string   `json:"blurb" yaml:"blurb"`
	Highlights     []string `json:"highlights" yaml:"highlights"`
	Images         []string `json:"images" yaml:"images"`
	SiteIDs        []string `json:"siteIds" yaml:"siteIds"`
	Endemic        *bool    `json:"endemic,omitempty" yaml:"endemic,omitempty"`
}

func (s Species) RecordID() string         { return s.ID }
func (s Species) RecordCategory() Category { return s.Category }
func (Species) isRecord()                  {}

// Taxonomy is the nested naming block of a SpeciesRecord.
type Taxonomy struct {
	Kingdom        string `json:"kingdom,omitempty" yaml:"kingdom,omitempty"`
	Family         string `json:"family,omitempty" yaml:"family,omitempty"`
	Genus          string `json:"genus,omitempty" yaml:"genus,omitempty"`
	ScientificName string `json:"scientificName" yaml:"scientificName"`
	Authority      string `json:"authority,omitempty" yaml:"authority,omitempty"`
}

// Occurrence places a species at a site in a given habitat.
type Occurrence struct {
	SiteID      string `json:"siteId" yaml:"siteId"`
	HabitatType string `json:"habitatType" yaml:"habitatType"`
	Abundance   string `json:"abundance,omitempty" yaml:"abundance,omitempty"`
}

type Ecology struct {
	Diet         string `json:"diet,omitempty" yaml:"diet,omitempty"`
	Behaviour    string `json:"behaviour,omitempty" yaml:"behaviour,omitempty"`
	Reproduction string `json:"reproduction,omitempty" yaml:"reproduction,omitempty"`
}

// SpeciesRecord is the richer "schema" record shape.
type SpeciesRecord struct {
	ID           string       `json:"id" yaml:"id"`
	Type         Category     `json:"type" yaml:"type"`
	CommonName   string       `json:"commonName" yaml:"commonName"`
	Taxonomy     *Taxonomy    `json:"taxonomy,omitempty" yaml:"taxonomy,omitempty"`
	Status       Status       `json:"status" yaml:"status"`
	Description  string       `json:"description" yaml:"description"`
	Distribution []Occurrence `json:"distribution,omitempty" yaml:"distribution,omitempty"`
	Ecology      *Ecology     `json:"ecology,omitempty" yaml:"ecology,omitempty"`
	Threats      []string     `json:"threats,omitempty" yaml:"threats,omitempty"`
	Highlights   []string     `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Images       []string     `json:"images,omitempty" yaml:"images,omitempty"`
	Endemic      *bool        `json:"endemic,omitempty" yaml:"endemic,omitempty"`
}

func (s SpeciesRecord) RecordID() string         { return s.ID }
func (s SpeciesRecord) RecordCategory() Category { return s.Type }
func (SpeciesRecord) isRecord()                  {}

// UnifiedSpecies is the read-only projection every consumer works with.
// Habitats and SiteIDs are sets: duplicates never appear, order carries no
// meaning beyond first occurrence.
type UnifiedSpecies struct {
	ID             string   `json:"id"`
	CommonName     string   `json:"commonName"`
	ScientificName string   `json:"scientificName"`
	Status         Status   `json:"status"`
	Type           Category `json:"type"`
	Description    string   `json:"description"`
	Habitats       []string `json:"habitats"`
	SiteIDs        []string `json:"siteIds"`
	Endemic        *bool    `json:"endemic,omitempty"`
}

// IsEndemic is true only for an explicit endemic flag.
func (u UnifiedSpecies) IsEndemic() bool {
	return u.Endemic != nil && *u.Endemic
}

// HasSite reports whether the species is recorded at siteID.
func (u UnifiedSpecies) HasSite(siteID string) bool {
	for _, id := range u.SiteIDs {
		if id == siteID {
			return true
		}
	}
	return false
}

// Dataset is the raw content of both record stores.
type Dataset struct {
	Sites []Site
	Flora []Record
	Fauna []Record
}
