package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
)

var _ admin.Repository = (*DB)(nil)

// ListSpecies returns stored species matching opts, flora first, each in
// its original shape.
func (d *DB) ListSpecies(ctx context.Context, opts ListOptions) ([]catalog.Record, error) {
	return d.records(ctx, opts)
}

func (d *DB) records(ctx context.Context, opts ListOptions) ([]catalog.Record, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	category, ok := normalizeCategoryFilter(opts.Category)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", opts.Category)
	}
	if category != "" {
		where += " AND category = ?"
		args = append(args, category)
	}
	status, ok := normalizeStatusFilter(opts.Status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", opts.Status)
	}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}
	if opts.NameFilter != "" {
		where += ` AND (lower(common_name) LIKE ? ESCAPE '\' OR lower(scientific_name) LIKE ? ESCAPE '\')`
		p := likePattern(opts.NameFilter)
		args = append(args, p, p)
	}

	q := "SELECT shape, data FROM species " + where + " ORDER BY CASE category WHEN 'flora' THEN 0 ELSE 1 END, position, id"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Record{}
	for rows.Next() {
		var shape, data string
		if err := rows.Scan(&shape, &data); err != nil {
			return nil, err
		}
		rec, err := decodeSpecies(shape, data)
		if err != nil {
			return nil, fmt.Errorf("decoding species: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every stored species in the flat admin shape.
func (d *DB) List(ctx context.Context) ([]catalog.Species, error) {
	records, err := d.records(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Species, len(records))
	for i, r := range records {
		out[i] = catalog.AsSpecies(r)
	}
	return out, nil
}

func (d *DB) Get(ctx context.Context, id string) (catalog.Species, bool, error) {
	rec, ok, err := d.GetRecord(ctx, id)
	if err != nil || !ok {
		return catalog.Species{}, ok, err
	}
	return catalog.AsSpecies(rec), true, nil
}

// GetRecord returns the stored species in its original shape.
func (d *DB) GetRecord(ctx context.Context, id string) (catalog.Record, bool, error) {
	var shape, data string
	err := d.sql.QueryRowContext(ctx, "SELECT shape, data FROM species WHERE id = ?", id).Scan(&shape, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rec, err := decodeSpecies(shape, data)
	if err != nil {
		return nil, false, fmt.Errorf("decoding species %q: %w", id, err)
	}
	return rec, true, nil
}

// Upsert stores s in the flat shape, replacing any record with its id. New
// records go to the end of their category.
func (d *DB) Upsert(ctx context.Context, s catalog.Species) (err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		data     string
		position int
	)
	err = tx.QueryRowContext(ctx, "SELECT data, position FROM species WHERE id = ?", s.ID).Scan(&data, &position)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if !existed {
		if err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position) + 1, 0) FROM species WHERE category = ?", string(s.Category)).Scan(&position); err != nil {
			return err
		}
	}

	r, err := speciesRow(s, position)
	if err != nil {
		return err
	}

	c := Change{Kind: KindSpecies, RecordID: r.ID, Name: r.Name, Origin: OriginAdmin}
	switch {
	case !existed:
		// run_id 0: the next import treats admin-created rows as stale.
		err = speciesTable.insert(ctx, tx, r, 0)
		c.ChangeType = ChangeAdded
	case data != r.Data:
		var runID int64
		if err = tx.QueryRowContext(ctx, "SELECT run_id FROM species WHERE id = ?", r.ID).Scan(&runID); err != nil {
			return err
		}
		err = speciesTable.update(ctx, tx, r, runID)
		c.ChangeType = ChangeUpdated
	default:
		return tx.Commit()
	}
	if err != nil {
		return err
	}
	if err = logChange(ctx, tx, c); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) Delete(ctx context.Context, id string) (removed bool, err error) {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var name string
	err = tx.QueryRowContext(ctx, "SELECT common_name FROM species WHERE id = ?", id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		_ = tx.Rollback()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM species WHERE id = ?", id); err != nil {
		return false, err
	}
	if err = logChange(ctx, tx, Change{Kind: KindSpecies, RecordID: id, Name: name, ChangeType: ChangeRemoved, Origin: OriginAdmin}); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
