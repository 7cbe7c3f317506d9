package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sw33tLie/biodex/pkg/catalog"
)

var (
	ErrNotEditing   = errors.New("no record is being edited")
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownSite  = errors.New("unknown site")
	ErrDuplicateID  = errors.New("species id already exists")
	ErrBadIndex     = errors.New("list index out of range")
	ErrInvalidValue = errors.New("invalid value")
	ErrNotFound     = errors.New("not found")
)

// Mode is the state of the editing slot.
type Mode int

const (
	ModeIdle Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	}
	return "idle"
}

// Field names a scalar or list attribute of catalog.Species.
type Field string

const (
	FieldID             Field = "id"
	FieldCategory       Field = "category"
	FieldCommonName     Field = "commonName"
	FieldScientificName Field = "scientificName"
	FieldStatus         Field = "status"
	FieldHabitat        Field = "habitat"
	FieldBlurb          Field = "blurb"
	FieldEndemic        Field = "endemic"
	FieldHighlights     Field = "highlights"
	FieldImages         Field = "images"
)

// ConfirmFunc is asked before a deletion; returning false cancels it.
type ConfirmFunc func(s catalog.Species) bool

// AlwaysConfirm accepts every deletion.
func AlwaysConfirm(catalog.Species) bool { return true }

// Editor drives a single create/edit draft against a Repository. It is not
// safe for concurrent use; callers serialize access.
type Editor struct {
	repo    Repository
	siteIDs map[string]struct{}
	confirm ConfirmFunc

	mode  Mode
	draft catalog.Species
	// editID is the id the edit slot was opened with.
	editID string
}

// NewEditor returns an idle editor. siteIDs is the fixed set ToggleSite
// accepts; a nil confirm behaves like AlwaysConfirm.
func NewEditor(repo Repository, siteIDs []string, confirm ConfirmFunc) *Editor {
	known := make(map[string]struct{}, len(siteIDs))
	for _, id := range siteIDs {
		known[id] = struct{}{}
	}
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	return &Editor{repo: repo, siteIDs: known, confirm: confirm}
}

func (e *Editor) Mode() Mode { return e.mode }

// Draft returns a copy of the record being edited.
func (e *Editor) Draft() (catalog.Species, error) {
	if e.mode == ModeIdle {
		return catalog.Species{}, ErrNotEditing
	}
	return catalog.CloneSpecies(e.draft), nil
}

// BeginCreate opens a blank flora draft with status DD. Any open draft is
// discarded.
func (e *Editor) BeginCreate() {
	e.mode = ModeCreate
	e.draft = catalog.Species{
		Category:   catalog.CategoryFlora,
		Status:     catalog.StatusDD,
		Highlights: []string{},
		Images:     []string{},
		SiteIDs:    []string{},
	}
}

// BeginEdit opens a draft holding a deep copy of s.
func (e *Editor) BeginEdit(s catalog.Species) {
	e.mode = ModeEdit
	e.draft = catalog.CloneSpecies(s)
	e.editID = s.ID
}

// BeginEditByID loads id from the repository and opens it for editing.
func (e *Editor) BeginEditByID(ctx context.Context, id string) error {
	s, ok, err := e.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("species %q: %w", id, ErrNotFound)
	}
	e.BeginEdit(s)
	return nil
}

// Cancel discards the draft.
func (e *Editor) Cancel() {
	e.mode = ModeIdle
	e.draft = catalog.Species{}
	e.editID = ""
}

// Set assigns a scalar field from its text form.
func (e *Editor) Set(f Field, value string) error {
	if e.mode == ModeIdle {
		return ErrNotEditing
	}
	switch f {
	case FieldID:
		e.draft.ID = strings.TrimSpace(value)
	case FieldCategory:
		c := catalog.Category(strings.ToLower(strings.TrimSpace(value)))
		if !c.Valid() {
			return fmt.Errorf("category %q: %w", value, ErrInvalidValue)
		}
		e.draft.Category = c
	case FieldCommonName:
		e.draft.CommonName = value
	case FieldScientificName:
		e.draft.ScientificName = value
	case FieldStatus:
		s, ok := catalog.ParseStatus(value)
		if !ok {
			return fmt.Errorf("status %q: %w", value, ErrInvalidValue)
		}
		e.draft.Status = s
	case FieldHabitat:
		e.draft.Habitat = value
	case FieldBlurb:
		e.draft.Blurb = value
	case FieldEndemic:
		if strings.TrimSpace(value) == "" {
			e.draft.Endemic = nil
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("endemic %q: %w", value, ErrInvalidValue)
		}
		e.draft.Endemic = catalog.Bool(b)
	default:
		return fmt.Errorf("%q: %w", f, ErrUnknownField)
	}
	return nil
}

// SetDraft replaces the whole draft, keeping the mode. Status spellings are
// normalized; an empty category keeps the current one.
func (e *Editor) SetDraft(s catalog.Species) error {
	if e.mode == ModeIdle {
		return ErrNotEditing
	}
	s = catalog.CloneSpecies(s)
	s.ID = strings.TrimSpace(s.ID)
	if s.Category == "" {
		s.Category = e.draft.Category
	}
	if !s.Category.Valid() {
		return fmt.Errorf("category %q: %w", s.Category, ErrInvalidValue)
	}
	if s.Status == "" {
		s.Status = catalog.StatusDD
	}
	status, ok := catalog.ParseStatus(string(s.Status))
	if !ok {
		return fmt.Errorf("status %q: %w", s.Status, ErrInvalidValue)
	}
	s.Status = status
	for _, id := range s.SiteIDs {
		if _, ok := e.siteIDs[id]; !ok {
			return fmt.Errorf("%q: %w", id, ErrUnknownSite)
		}
	}
	if s.Highlights == nil {
		s.Highlights = []string{}
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if s.SiteIDs == nil {
		s.SiteIDs = []string{}
	}
	e.draft = s
	return nil
}

// ToggleSite adds siteID to the draft's sites, or removes it if present.
func (e *Editor) ToggleSite(siteID string) error {
	if e.mode == ModeIdle {
		return ErrNotEditing
	}
	if _, ok := e.siteIDs[siteID]; !ok {
		return fmt.Errorf("%q: %w", siteID, ErrUnknownSite)
	}
	for i, id := range e.draft.SiteIDs {
		if id == siteID {
			e.draft.SiteIDs = append(e.draft.SiteIDs[:i], e.draft.SiteIDs[i+1:]...)
			return nil
		}
	}
	e.draft.SiteIDs = append(e.draft.SiteIDs, siteID)
	return nil
}

// AddItem appends an entry to a list field.
func (e *Editor) AddItem(f Field, value string) error {
	list, err := e.list(f)
	if err != nil {
		return err
	}
	*list = append(*list, value)
	return nil
}

// SetItem replaces the entry at i of a list field.
func (e *Editor) SetItem(f Field, i int, value string) error {
	list, err := e.list(f)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*list) {
		return fmt.Errorf("%s[%d]: %w", f, i, ErrBadIndex)
	}
	(*list)[i] = value
	return nil
}

// RemoveItem drops the entry at i of a list field.
func (e *Editor) RemoveItem(f Field, i int) error {
	list, err := e.list(f)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(*list) {
		return fmt.Errorf("%s[%d]: %w", f, i, ErrBadIndex)
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	return nil
}

func (e *Editor) list(f Field) (*[]string, error) {
	if e.mode == ModeIdle {
		return nil, ErrNotEditing
	}
	switch f {
	case FieldHighlights:
		return &e.draft.Highlights, nil
	case FieldImages:
		return &e.draft.Images, nil
	}
	return nil, fmt.Errorf("%q is not a list: %w", f, ErrUnknownField)
}

// Save commits the draft. Blank highlights are dropped. In create mode the
// id must be new; an empty id is generated. In edit mode the record with the
// id the slot was opened with is replaced, or appended when it no longer
// exists; changing the id is rejected. The slot is cleared only on success.
func (e *Editor) Save(ctx context.Context) (catalog.Species, error) {
	if e.mode == ModeIdle {
		return catalog.Species{}, ErrNotEditing
	}
	s := catalog.CloneSpecies(e.draft)
	s.Highlights = nonBlank(s.Highlights)

	if e.mode == ModeCreate {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		_, exists, err := e.repo.Get(ctx, s.ID)
		if err != nil {
			return catalog.Species{}, err
		}
		if exists {
			return catalog.Species{}, fmt.Errorf("%q: %w", s.ID, ErrDuplicateID)
		}
	} else if s.ID == "" {
		return catalog.Species{}, fmt.Errorf("id: %w", ErrInvalidValue)
	} else if e.editID != "" && s.ID != e.editID {
		return catalog.Species{}, fmt.Errorf("id %q cannot replace %q while editing: %w", s.ID, e.editID, ErrInvalidValue)
	}

	if err := e.repo.Upsert(ctx, s); err != nil {
		return catalog.Species{}, err
	}
	e.Cancel()
	return s, nil
}

// Delete removes id after confirmation. It reports false, with a nil error,
// when the record is absent or the confirmation is declined.
func (e *Editor) Delete(ctx context.Context, id string) (bool, error) {
	s, ok, err := e.repo.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	if !e.confirm(s) {
		return false, nil
	}
	return e.repo.Delete(ctx, id)
}

// List returns the working list.
func (e *Editor) List(ctx context.Context) ([]catalog.Species, error) {
	return e.repo.List(ctx)
}

func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
