package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sw33tLie/biodex/pkg/catalog"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sites (
  id            TEXT PRIMARY KEY,
  name          TEXT NOT NULL,
  site_type     TEXT NOT NULL,
  lat           REAL NOT NULL,
  lng           REAL NOT NULL,
  data          TEXT NOT NULL,
  position      INTEGER NOT NULL DEFAULT 0,
  run_id        INTEGER NOT NULL DEFAULT 0,
  first_seen_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS species (
  id              TEXT PRIMARY KEY,
  category        TEXT NOT NULL,
  common_name     TEXT NOT NULL,
  scientific_name TEXT NOT NULL,
  status          TEXT NOT NULL,
  shape           TEXT NOT NULL CHECK (shape IN ('flat','schema')),
  data            TEXT NOT NULL,
  position        INTEGER NOT NULL DEFAULT 0,
  run_id          INTEGER NOT NULL DEFAULT 0,
  first_seen_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_seen_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_species_category ON species(category, position);
CREATE TABLE IF NOT EXISTS changes (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  kind        TEXT NOT NULL CHECK (kind IN ('site','species')),
  record_id   TEXT NOT NULL,
  name        TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed')),
  origin      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON changes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_changes_record ON changes(kind, record_id, occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// ImportDataset makes the stored sites and species mirror ds. Rows missing
// from ds are removed, including ones created through the admin surface.
// Every difference is logged with origin as its source.
func (d *DB) ImportDataset(ctx context.Context, ds catalog.Dataset, origin string) (changes []Change, err error) {
	runID := time.Now().UnixNano()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	siteRows := make([]row, 0, len(ds.Sites))
	for i, s := range ds.Sites {
		r, err := siteRow(s, i)
		if err != nil {
			return nil, err
		}
		siteRows = append(siteRows, r)
	}
	siteChanges, err := syncTable(ctx, tx, sitesTable, siteRows, runID, origin)
	if err != nil {
		return nil, err
	}

	speciesRows := make([]row, 0, len(ds.Flora)+len(ds.Fauna))
	for _, store := range [][]catalog.Record{ds.Flora, ds.Fauna} {
		for i, rec := range store {
			r, err := speciesRow(rec, i)
			if err != nil {
				return nil, err
			}
			speciesRows = append(speciesRows, r)
		}
	}
	speciesChanges, err := syncTable(ctx, tx, speciesTable, speciesRows, runID, origin)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return append(siteChanges, speciesChanges...), nil
}

// syncTable writes rows stamped with runID, then sweeps rows not touched in
// this run.
func syncTable(ctx context.Context, tx *sql.Tx, t table, rows []row, runID int64, origin string) ([]Change, error) {
	now := time.Now().UTC()

	existing, err := loadData(ctx, tx, t)
	if err != nil {
		return nil, err
	}

	var changes []Change
	for _, r := range rows {
		data, existed := existing[r.ID]
		switch {
		case !existed:
			if err := t.insert(ctx, tx, r, runID); err != nil {
				return nil, err
			}
			existing[r.ID] = r.Data
			changes = append(changes, Change{OccurredAt: now, Kind: t.kind, RecordID: r.ID, Name: r.Name, ChangeType: ChangeAdded, Origin: origin})
		case data != r.Data:
			if err := t.update(ctx, tx, r, runID); err != nil {
				return nil, err
			}
			changes = append(changes, Change{OccurredAt: now, Kind: t.kind, RecordID: r.ID, Name: r.Name, ChangeType: ChangeUpdated, Origin: origin})
		default:
			if _, err := tx.ExecContext(ctx, "UPDATE "+t.name+" SET run_id = ?, position = ?, last_seen_at = CURRENT_TIMESTAMP WHERE id = ?", runID, r.Position, r.ID); err != nil {
				return nil, err
			}
		}
	}

	// Sweep: find and delete rows not touched in this run, log removals
	staleRows, err := tx.QueryContext(ctx, "SELECT id, "+t.nameColumn+" FROM "+t.name+" WHERE run_id != ?", runID)
	if err != nil {
		return nil, err
	}
	var stale []Change
	for staleRows.Next() {
		c := Change{OccurredAt: now, Kind: t.kind, ChangeType: ChangeRemoved, Origin: origin}
		if err := staleRows.Scan(&c.RecordID, &c.Name); err != nil {
			staleRows.Close()
			return nil, err
		}
		stale = append(stale, c)
	}
	if err := staleRows.Close(); err != nil {
		return nil, err
	}
	if len(stale) > 0 {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE run_id != ?", runID); err != nil {
			return nil, err
		}
		changes = append(changes, stale...)
	}

	for _, c := range changes {
		if err := logChange(ctx, tx, c); err != nil {
			return nil, err
		}
	}
	return changes, nil
}

func loadData(ctx context.Context, q queryer, t table) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, data FROM "+t.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, rows.Err()
}

func logChange(ctx context.Context, e execer, c Change) error {
	_, err := e.ExecContext(ctx, `INSERT INTO changes(occurred_at, kind, record_id, name, change_type, origin) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, ?, ?)`,
		c.Kind, c.RecordID, c.Name, c.ChangeType, c.Origin)
	return err
}

// Dataset rebuilds the stored sites and species in their original shapes.
func (d *DB) Dataset(ctx context.Context) (catalog.Dataset, error) {
	var ds catalog.Dataset

	rows, err := d.sql.QueryContext(ctx, "SELECT data FROM sites ORDER BY position, id")
	if err != nil {
		return ds, err
	}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			rows.Close()
			return ds, err
		}
		var s catalog.Site
		if err := json.Unmarshal([]byte(data), &s); err != nil {
			rows.Close()
			return ds, fmt.Errorf("decoding site: %w", err)
		}
		ds.Sites = append(ds.Sites, s)
	}
	if err := rows.Close(); err != nil {
		return ds, err
	}

	records, err := d.records(ctx, ListOptions{})
	if err != nil {
		return ds, err
	}
	for _, r := range records {
		if r.RecordCategory() == catalog.CategoryFauna {
			ds.Fauna = append(ds.Fauna, r)
		} else {
			ds.Flora = append(ds.Flora, r)
		}
	}
	return ds, nil
}

// ListRecentChanges returns the most recent N changes, newest first.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, kind, record_id, name, change_type, origin FROM changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &c.Kind, &c.RecordID, &c.Name, &c.ChangeType, &c.Origin); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAtStr)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// parseTimestamp reads SQLite CURRENT_TIMESTAMP text, or RFC3339 when the
// driver has already converted the column.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
