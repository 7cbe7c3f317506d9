// Package admin implements the species edit surface: a working list behind
// a Repository and a single editing slot.
package admin

import (
	"context"
	"sync"

	"github.com/sw33tLie/biodex/pkg/catalog"
)

// Repository stores the working species list, keyed by id. Implementations
// return copies; callers never alias stored state.
type Repository interface {
	List(ctx context.Context) ([]catalog.Species, error)
	Get(ctx context.Context, id string) (catalog.Species, bool, error)
	// Upsert replaces the record with the same id, or appends it.
	Upsert(ctx context.Context, s catalog.Species) error
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// MemoryRepository keeps the working list for the lifetime of the process.
type MemoryRepository struct {
	mu      sync.RWMutex
	species []catalog.Species
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository seeds a repository with copies of records.
func NewMemoryRepository(records []catalog.Species) *MemoryRepository {
	r := &MemoryRepository{species: make([]catalog.Species, 0, len(records))}
	for _, s := range records {
		r.species = append(r.species, catalog.CloneSpecies(s))
	}
	return r
}

// SeedFromCatalog flattens every record of c, flora first.
func SeedFromCatalog(c *catalog.Catalog) *MemoryRepository {
	records := c.Records()
	flat := make([]catalog.Species, 0, len(records))
	for _, r := range records {
		flat = append(flat, catalog.AsSpecies(r))
	}
	return NewMemoryRepository(flat)
}

func (r *MemoryRepository) List(_ context.Context) ([]catalog.Species, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]catalog.Species, len(r.species))
	for i, s := range r.species {
		out[i] = catalog.CloneSpecies(s)
	}
	return out, nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (catalog.Species, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexOf(id); i >= 0 {
		return catalog.CloneSpecies(r.species[i]), true, nil
	}
	return catalog.Species{}, false, nil
}

func (r *MemoryRepository) Upsert(_ context.Context, s catalog.Species) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s = catalog.CloneSpecies(s)
	if i := r.indexOf(s.ID); i >= 0 {
		r.species[i] = s
		return nil
	}
	r.species = append(r.species, s)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexOf(id)
	if i < 0 {
		return false, nil
	}
	r.species = append(r.species[:i], r.species[i+1:]...)
	return true, nil
}

func (r *MemoryRepository) indexOf(id string) int {
	for i, s := range r.species {
		if s.ID == id {
			return i
		}
	}
	return -1
}
