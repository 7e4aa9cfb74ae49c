package controllers

import (
	"net/http"
	"strings"

	"github.com/lunaplata/joyeria-backend/api/responses"
	"github.com/lunaplata/joyeria-backend/api/validators"
	"github.com/lunaplata/joyeria-backend/internal/catalog"
	pkgerrors "github.com/lunaplata/joyeria-backend/pkg/errors"
	"github.com/lunaplata/joyeria-backend/pkg/logger"
)

// ProductList browses the catalog:
// ?min_price=&max_price=&category=&color=&customizable=&sort=&q=
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		products, err := svc.List(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMeta(w, products, map[string]any{"count": len(products)})
	}
}

func ProductGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func parseProductFilters(r *http.Request) (catalog.Filters, error) {
	var f catalog.Filters
	var err error
	if f.MinPrice, err = validators.ParseQueryDecimal(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = validators.ParseQueryDecimal(r, "max_price"); err != nil {
		return f, err
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return f, pkgerrors.New(pkgerrors.CodeValidation, "min_price must not exceed max_price")
	}
	if f.Customizable, err = validators.ParseQueryBool(r, "customizable"); err != nil {
		return f, err
	}
	if f.Sort, err = catalog.ParseSortKey(r.URL.Query().Get("sort")); err != nil {
		return f, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort").
			WithDetails(map[string]any{"allowed": []string{"price-asc", "price-desc", "name-asc", "name-desc"}})
	}
	f.Categories = validators.ParseQueryList(r, "category")
	f.Colors = validators.ParseQueryList(r, "color")
	f.Search = strings.TrimSpace(r.URL.Query().Get("q"))
	return f, nil
}
