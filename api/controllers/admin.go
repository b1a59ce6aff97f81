package controllers

import (
	"net/http"

	"github.com/shopfront/storefront-backend/api/responses"
	productsvc "github.com/shopfront/storefront-backend/internal/products"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

// AdminListProducts returns every product without pagination.
func AdminListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		items, err := svc.AdminList(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminGetProduct returns one product for the edit form.
func AdminGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return GetProduct(svc, logg)
}
