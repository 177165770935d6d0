package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter mounts the REST surface: the catalog and order resources
// under /v1, plus a health probe.
func NewRouter(products *ProductHandler, orders *OrderHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		products.RegisterRoutes(r)
		orders.RegisterRoutes(r)
	})

	return r
}
