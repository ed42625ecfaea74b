package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/store"
)

// Router is Reddwarf's REST surface, built atop go-chi/chi/v5.
// Cluster-scoped kinds mount directly under /api/v1;
// Namespace gets its own CRUD tree at /api/v1/namespaces (and doubles as
// the prefix namespaced kinds nest their per-namespace routes under);
// every namespaced kind additionally gets a read-only cross-namespace
// list at /api/v1/{plural}.
type Router struct {
	mux *chi.Mux

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

type routerContextKey struct{}

// New builds a Router wired to st. box seals and opens Secret payloads at
// the API boundary, so the version store only ever holds ciphertext; a
// nil box leaves Secret data untouched, for deployments or tests that
// have not configured a secret-encryption key.
func New(st *store.Store, box *secretbox.Box) *Router {
	r := &Router{
		mux:      chi.NewRouter(),
		shutdown: make(chan struct{}),
	}

	r.mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), routerContextKey{}, r)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.mux.Use(chimw.Recoverer)
	r.mux.Use(requestLogger)

	r.mux.Get("/healthz", okHandler)
	r.mux.Get("/livez", okHandler)
	r.mux.Get("/readyz", okHandler)

	r.mux.Route("/api/v1", func(api chi.Router) {
		for _, kc := range clusterScopedKinds {
			mountClusterScoped(api, st, kc, box)
		}
		mountNamespaces(api, st, box)
		for _, kc := range namespacedKinds {
			mountNamespaced(api, st, kc, box)
			mountCrossNamespaceList(api, st, kc, box)
		}
	})

	return r
}

// Handler returns the http.Handler to serve.
func (r *Router) Handler() http.Handler { return r.mux }

// Shutdown signals every open watch to emit a final BOOKMARK event and
// stop. Safe to call more than once.
func (r *Router) Shutdown() {
	r.shutdownOnce.Do(func() { close(r.shutdown) })
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{})
}

func mountClusterScoped(api chi.Router, st *store.Store, kc kindConfig, box *secretbox.Box) {
	api.Route("/"+kc.plural, func(rt chi.Router) {
		rt.Post("/", createHandler(st, kc, box))
		rt.Get("/", listHandler(st, kc, box, true))
		rt.Get("/{name}", getHandler(st, kc, box))
		rt.Put("/{name}", replaceHandler(st, kc, box))
		rt.Patch("/{name}", patchHandler(st, kc, box))
		rt.Delete("/{name}", deleteHandler(st, kc))
		rt.Post("/{name}/finalize", finalizeHandler(st, kc))
	})
}

func mountNamespaces(api chi.Router, st *store.Store, box *secretbox.Box) {
	api.Route("/"+namespaceKind.plural, func(rt chi.Router) {
		rt.Post("/", createHandler(st, namespaceKind, box))
		rt.Get("/", listHandler(st, namespaceKind, box, true))
		rt.Get("/{name}", getHandler(st, namespaceKind, box))
		rt.Put("/{name}", replaceHandler(st, namespaceKind, box))
		rt.Patch("/{name}", patchHandler(st, namespaceKind, box))
		rt.Delete("/{name}", deleteHandler(st, namespaceKind))
		rt.Post("/{name}/finalize", finalizeHandler(st, namespaceKind))
	})
}

func mountNamespaced(api chi.Router, st *store.Store, kc kindConfig, box *secretbox.Box) {
	api.Route("/namespaces/{namespace}/"+kc.plural, func(rt chi.Router) {
		rt.Post("/", createHandler(st, kc, box))
		rt.Get("/", listHandler(st, kc, box, false))
		rt.Get("/{name}", getHandler(st, kc, box))
		rt.Put("/{name}", replaceHandler(st, kc, box))
		rt.Patch("/{name}", patchHandler(st, kc, box))
		rt.Delete("/{name}", deleteHandler(st, kc))
		rt.Post("/{name}/finalize", finalizeHandler(st, kc))
	})
}

// mountCrossNamespaceList adds the read-only /api/v1/{plural} list (spec
// §8 scenario d): every resource of kind across every namespace.
func mountCrossNamespaceList(api chi.Router, st *store.Store, kc kindConfig, box *secretbox.Box) {
	api.Get("/"+kc.plural, listHandler(st, kc, box, true))
}
