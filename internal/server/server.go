package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sw33tLie/biodex/internal/utils"
	"github.com/sw33tLie/biodex/pkg/admin"
	"github.com/sw33tLie/biodex/pkg/catalog"
	"github.com/sw33tLie/biodex/pkg/query"
)

type Config struct {
	Username string
	Password string
	// Threshold is the fuzzy search typo threshold.
	Threshold float64
	// CacheTTL bounds how long a search result is reused. Zero disables
	// expiry until the catalog changes.
	CacheTTL time.Duration
	// Live rebuilds the served catalog after every admin write.
	Live bool
}

type Server struct {
	Username string
	Password string

	current atomic.Pointer[snapshot]
	gen     atomic.Uint64
	engine  *query.Engine
	cache   *cache.Cache
	live    bool

	// editMu serializes admin writes and live rebuilds.
	editMu sync.Mutex
	repo   admin.Repository

	registry *prometheus.Registry
	metrics  *metrics
}

func New(c *catalog.Catalog, repo admin.Repository, cfg Config) (*Server, error) {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = cache.NoExpiration
	}
	registry := prometheus.NewRegistry()
	m, err := newMetrics(registry)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Username: cfg.Username,
		Password: cfg.Password,
		engine:   query.New(cfg.Threshold),
		cache:    cache.New(ttl, 10*time.Minute),
		live:     cfg.Live,
		repo:     repo,
		registry: registry,
		metrics:  m,
	}
	s.SetCatalog(c)
	return s, nil
}

// snapshot is a served catalog and the generation it was installed as.
// Search results are cached per generation.
type snapshot struct {
	catalog *catalog.Catalog
	gen     uint64
}

func (sn *snapshot) cacheKey(opts query.Options) string {
	return strconv.FormatUint(sn.gen, 10) + "|" + opts.Key()
}

// Catalog returns the catalog currently served.
func (s *Server) Catalog() *catalog.Catalog {
	return s.current.Load().catalog
}

// SetCatalog swaps the served catalog and drops cached search results.
func (s *Server) SetCatalog(c *catalog.Catalog) {
	s.current.Store(&snapshot{catalog: c, gen: s.gen.Add(1)})
	s.cache.Flush()
	st := c.Stats()
	s.metrics.catalogRecords.WithLabelValues("site").Set(float64(st.Sites))
	s.metrics.catalogRecords.WithLabelValues("flora").Set(float64(st.Flora))
	s.metrics.catalogRecords.WithLabelValues("fauna").Set(float64(st.Fauna))
}

// Replace swaps in a freshly loaded catalog once no admin write is running.
func (s *Server) Replace(c *catalog.Catalog) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	s.SetCatalog(c)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "GET /api/species", s.handleSearch)
	s.route(mux, "GET /api/species/{id}", s.handleSpecies)
	s.route(mux, "GET /api/sites", s.handleSites)
	s.route(mux, "GET /api/sites/{id}", s.handleSite)
	s.route(mux, "GET /api/stats", s.handleStats)

	s.route(mux, "GET /api/admin/species", s.basicAuth(s.handleAdminList))
	s.route(mux, "POST /api/admin/species", s.basicAuth(s.handleAdminCreate))
	s.route(mux, "PUT /api/admin/species/{id}", s.basicAuth(s.handleAdminUpdate))
	s.route(mux, "DELETE /api/admin/species/{id}", s.basicAuth(s.handleAdminDelete))

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	if s.Username == "" && s.Password == "" {
		utils.Log.Warn("No admin credentials configured, admin routes are open")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		utils.Log.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// route registers h with request logging and metrics labelled by pattern.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		elapsed := time.Since(start)

		s.metrics.requests.WithLabelValues(pattern, strconv.Itoa(rec.status)).Inc()
		s.metrics.duration.WithLabelValues(pattern).Observe(elapsed.Seconds())
		utils.Log.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed,
		}).Debug("Request served")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !equal(user, s.Username) || !equal(pass, s.Password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="biodex admin"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
