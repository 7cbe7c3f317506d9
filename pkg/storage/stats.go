package storage

import (
	"context"

	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/tidwall/gjson"
)

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	st := Stats{
		ByStatus:       make(map[string]int, len(catalog.SeverityOrder)),
		SpeciesPerSite: make(map[string]int),
	}
	for _, code := range catalog.SeverityOrder {
		st.ByStatus[string(code)] = 0
	}

	siteRows, err := d.sql.QueryContext(ctx, "SELECT id FROM sites ORDER BY position, id")
	if err != nil {
		return st, err
	}
	for siteRows.Next() {
		var id string
		if err := siteRows.Scan(&id); err != nil {
			siteRows.Close()
			return st, err
		}
		st.Sites++
		st.SpeciesPerSite[id] = 0
	}
	if err := siteRows.Close(); err != nil {
		return st, err
	}

	rows, err := d.sql.QueryContext(ctx, "SELECT category, status, data FROM species")
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var category, status, data string
		if err := rows.Scan(&category, &status, &data); err != nil {
			return st, err
		}
		if category == string(catalog.CategoryFauna) {
			st.Fauna++
		} else {
			st.Flora++
		}
		st.ByStatus[status]++
		for _, id := range siteIDs(data) {
			// Dangling references are not counted.
			if _, ok := st.SpeciesPerSite[id]; ok {
				st.SpeciesPerSite[id]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM changes").Scan(&st.Changes); err != nil {
		return st, err
	}
	return st, nil
}

// siteIDs reads the distinct site ids of a stored species from either shape.
func siteIDs(data string) []string {
	ids := gjson.Get(data, "siteIds")
	if !ids.Exists() {
		ids = gjson.Get(data, "distribution.#.siteId")
	}
	var out []string
	seen := map[string]bool{}
	for _, v := range ids.Array() {
		id := v.String()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
