package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
)

func (s *Server) editor(confirm admin.ConfirmFunc) *admin.Editor {
	return admin.NewEditor(s.repo, s.Catalog().SiteIDs(), confirm)
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var body catalog.Species
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	ed := s.editor(nil)
	ed.BeginCreate()
	saved, err := s.save(r.Context(), ed, body)
	if err != nil {
		s.metrics.adminWrites.WithLabelValues("create", "error").Inc()
		writeAdminError(w, err)
		return
	}
	s.metrics.adminWrites.WithLabelValues("create", "ok").Inc()
	utils.Log.WithField("id", saved.ID).Info("Species created")
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	var body catalog.Species
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body.ID = r.PathValue("id")

	s.editMu.Lock()
	defer s.editMu.Unlock()

	// Unknown ids are upserted. An omitted category keeps the stored one.
	ed := s.editor(nil)
	if err := ed.BeginEditByID(r.Context(), body.ID); err != nil {
		if !errors.Is(err, admin.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		ed.BeginEdit(catalog.Species{ID: body.ID, Category: catalog.CategoryFlora})
	}
	saved, err := s.save(r.Context(), ed, body)
	if err != nil {
		s.metrics.adminWrites.WithLabelValues("update", "error").Inc()
		writeAdminError(w, err)
		return
	}
	s.metrics.adminWrites.WithLabelValues("update", "ok").Inc()
	utils.Log.WithField("id", saved.ID).Info("Species saved")
	writeJSON(w, http.StatusOK, saved)
}

// handleAdminDelete removes a species only when the request carries
// confirm=true; otherwise it declines and changes nothing.
func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	confirmed := r.URL.Query().Get("confirm") == "true"

	s.editMu.Lock()
	defer s.editMu.Unlock()

	ctx := r.Context()
	if _, ok, err := s.repo.Get(ctx, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	ed := s.editor(func(catalog.Species) bool { return confirmed })
	removed, err := ed.Delete(ctx, id)
	if err != nil {
		s.metrics.adminWrites.WithLabelValues("delete", "error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !removed {
		s.metrics.adminWrites.WithLabelValues("delete", "declined").Inc()
		writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": false, "reason": "add confirm=true to delete"})
		return
	}
	s.metrics.adminWrites.WithLabelValues("delete", "ok").Inc()
	utils.Log.WithField("id", id).Info("Species deleted")
	if err := s.rebuild(ctx, id); err != nil {
		utils.Log.WithError(err).Error("Failed to rebuild catalog")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": true})
}

func (s *Server) save(ctx context.Context, ed *admin.Editor, body catalog.Species) (catalog.Species, error) {
	if err := ed.SetDraft(body); err != nil {
		return catalog.Species{}, err
	}
	saved, err := ed.Save(ctx)
	if err != nil {
		return catalog.Species{}, err
	}
	if err := s.rebuild(ctx, saved.ID); err != nil {
		utils.Log.WithError(err).Error("Failed to rebuild catalog")
	}
	return saved, nil
}

// datasetSource is a repository that can rebuild the whole dataset in its
// original record shapes, like the sqlite store.
type datasetSource interface {
	Dataset(ctx context.Context) (catalog.Dataset, error)
}

// rebuild makes the admin write to id searchable in live mode by swapping
// in a new catalog. Every other record keeps its original shape. Callers
// hold editMu.
func (s *Server) rebuild(ctx context.Context, id string) error {
	if !s.live {
		return nil
	}
	if src, ok := s.repo.(datasetSource); ok {
		ds, err := src.Dataset(ctx)
		if err != nil {
			return err
		}
		s.SetCatalog(catalog.New(ds))
		return nil
	}

	written, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	s.SetCatalog(catalog.New(overlay(s.Catalog(), written, found)))
	return nil
}

// overlay returns the dataset of c with the record of written's id replaced
// in place by written, or removed when found is false. A record that moved
// category, or is new, goes to the end of its store.
func overlay(c *catalog.Catalog, written catalog.Species, found bool) catalog.Dataset {
	ds := catalog.Dataset{Sites: c.Sites()}
	add := func(r catalog.Record) {
		if r.RecordCategory() == catalog.CategoryFauna {
			ds.Fauna = append(ds.Fauna, r)
		} else {
			ds.Flora = append(ds.Flora, r)
		}
	}

	placed := !found
	for _, r := range c.Records() {
		if r.RecordID() != written.ID {
			add(r)
			continue
		}
		if !placed && r.RecordCategory() == written.Category {
			add(written)
			placed = true
		}
	}
	if !placed {
		add(written)
	}
	return ds
}

func writeAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, admin.ErrInvalidValue), errors.Is(err, admin.ErrUnknownSite), errors.Is(err, admin.ErrUnknownField):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
