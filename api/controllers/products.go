package controllers

import (
	"net/http"

	"github.com/urbancart/urbancart-backend/internal/products"
	"github.com/urbancart/urbancart-backend/pkg/logger"
)

// ProductList serves the catalog. Unparseable numeric filters are dropped
// rather than rejected.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "product", svc != nil, func(r *http.Request) (any, error) {
		return svc.List(r.Context(), products.FiltersFromQuery(r.URL.Query()))
	})
}

func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "product", svc != nil, func(r *http.Request) (any, error) {
		return svc.GetBySlug(r.Context(), pathParam(r, "slug"))
	})
}

func SizeList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return serve(logg, http.StatusOK, "product", svc != nil, func(r *http.Request) (any, error) {
		return svc.ListSizes(r.Context())
	})
}
