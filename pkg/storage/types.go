package storage

import "time"

const (
	KindSite    = "site"
	KindSpecies = "species"

	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeRemoved = "removed"

	// OriginAdmin marks changes made through the admin surface.
	OriginAdmin = "admin"

	shapeFlat   = "flat"
	shapeSchema = "schema"
)

// Change captures a single change event for auditing or printing.
type Change struct {
	OccurredAt time.Time `json:"occurred_at"`
	Kind       string    `json:"kind"` // site | species
	RecordID   string    `json:"record_id"`
	Name       string    `json:"name"`
	ChangeType string    `json:"change_type"` // added | updated | removed
	Origin     string    `json:"origin"`      // import source or admin
}

// ListOptions controls selection when listing species.
type ListOptions struct {
	Category   string
	Status     string
	NameFilter string
}

// Stats summarizes the stored dataset.
type Stats struct {
	Sites          int            `json:"sites"`
	Flora          int            `json:"flora"`
	Fauna          int            `json:"fauna"`
	ByStatus       map[string]int `json:"by_status"`
	SpeciesPerSite map[string]int `json:"species_per_site"`
	Changes        int            `json:"changes"`
}
