package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// row is one site or species ready to write. Data holds the record's JSON
// and is what change detection compares.
type row struct {
	ID       string
	Name     string
	Position int
	Data     string

	// sites
	SiteType string
	Lat, Lng float64

	// species
	Category       string
	ScientificName string
	Status         string
	Shape          string
}

type table struct {
	name       string
	kind       string
	nameColumn string
}

var (
	sitesTable   = table{name: "sites", kind: KindSite, nameColumn: "name"}
	speciesTable = table{name: "species", kind: KindSpecies, nameColumn: "common_name"}
)

func (t table) insert(ctx context.Context, e execer, r row, runID int64) error {
	var err error
	if t.kind == KindSite {
		_, err = e.ExecContext(ctx, `INSERT INTO sites(id, name, site_type, lat, lng, data, position, run_id, first_seen_at, last_seen_at) VALUES(?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`,
			r.ID, r.Name, r.SiteType, r.Lat, r.Lng, r.Data, r.Position, runID)
	} else {
		_, err = e.ExecContext(ctx, `INSERT INTO species(id, category, common_name, scientific_name, status, shape, data, position, run_id, first_seen_at, last_seen_at) VALUES(?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`,
			r.ID, r.Category, r.Name, r.ScientificName, r.Status, r.Shape, r.Data, r.Position, runID)
	}
	return err
}

func (t table) update(ctx context.Context, e execer, r row, runID int64) error {
	var err error
	if t.kind == KindSite {
		_, err = e.ExecContext(ctx, `UPDATE sites SET name = ?, site_type = ?, lat = ?, lng = ?, data = ?, position = ?, run_id = ?, last_seen_at = CURRENT_TIMESTAMP WHERE id = ?`,
			r.Name, r.SiteType, r.Lat, r.Lng, r.Data, r.Position, runID, r.ID)
	} else {
		_, err = e.ExecContext(ctx, `UPDATE species SET category = ?, common_name = ?, scientific_name = ?, status = ?, shape = ?, data = ?, position = ?, run_id = ?, last_seen_at = CURRENT_TIMESTAMP WHERE id = ?`,
			r.Category, r.Name, r.ScientificName, r.Status, r.Shape, r.Data, r.Position, runID, r.ID)
	}
	return err
}

func siteRow(s catalog.Site, position int) (row, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return row{}, fmt.Errorf("encoding site %q: %w", s.ID, err)
	}
	return row{
		ID:       s.ID,
		Name:     s.Name,
		Position: position,
		Data:     string(data),
		SiteType: string(s.Type),
		Lat:      s.Lat,
		Lng:      s.Lng,
	}, nil
}

func speciesRow(r catalog.Record, position int) (row, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return row{}, fmt.Errorf("encoding species %q: %w", r.RecordID(), err)
	}
	u := catalog.Unify(r)
	return row{
		ID:             u.ID,
		Name:           u.CommonName,
		Position:       position,
		Data:           string(data),
		Category:       string(u.Type),
		ScientificName: u.ScientificName,
		Status:         string(u.Status),
		Shape:          shapeOf(r),
	}, nil
}

func shapeOf(r catalog.Record) string {
	switch r.(type) {
	case catalog.SpeciesRecord, *catalog.SpeciesRecord:
		return shapeSchema
	}
	return shapeFlat
}

func decodeSpecies(shape, data string) (catalog.Record, error) {
	if shape == shapeSchema {
		var rec catalog.SpeciesRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	var rec catalog.Species
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
