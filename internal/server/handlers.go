package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/query"
)

type searchResponse struct {
	Species     []catalog.UnifiedSpecies `json:"species"`
	TotalCount  int                      `json:"total_count"`
	GeneratedAt time.Time                `json:"generated_at"`
}

type speciesResponse struct {
	Species catalog.Record         `json:"species"`
	Unified catalog.UnifiedSpecies `json:"unified"`
	Sites   []catalog.Site         `json:"sites"`
}

type siteResponse struct {
	Site       catalog.Site             `json:"site"`
	Species    []catalog.UnifiedSpecies `json:"species"`
	Highlights []catalog.UnifiedSpecies `json:"highlights"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func searchOptions(r *http.Request) (query.Options, error) {
	q := r.URL.Query()
	opts := query.Options{
		Query:  q.Get("q"),
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Site:   q.Get("site"),
	}
	if v := q.Get("endemic"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, err
		}
		opts.EndemicOnly = b
	}
	return opts, opts.Validate()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	opts, err := searchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Results computed from a catalog that is swapped out meanwhile land
	// under the old generation and are never served.
	snap := s.current.Load()
	key := snap.cacheKey(opts)
	if cached, found := s.cache.Get(key); found {
		s.metrics.cacheLookups.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	s.metrics.cacheLookups.WithLabelValues("miss").Inc()

	results := s.engine.Search(snap.catalog.UnifiedSpecies(), opts)
	resp := searchResponse{Species: results, TotalCount: len(results), GeneratedAt: time.Now().UTC()}
	s.cache.Set(key, resp, cache.DefaultExpiration)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	c := s.Catalog()
	rec, ok := c.FindSpeciesByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, speciesResponse{
		Species: rec,
		Unified: catalog.Unify(rec),
		Sites:   c.SitesForSpecies(rec.RecordID()),
	})
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog().Sites())
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	c := s.Catalog()
	site, ok := c.FindSiteByID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, siteResponse{
		Site:       site,
		Species:    c.SpeciesAtSite(site.ID),
		Highlights: c.HighlightSpecies(site.ID),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog().Stats())
}
