package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopfront/storefront-backend/api/responses"
	"github.com/shopfront/storefront-backend/internal/categories"
	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
	"github.com/shopfront/storefront-backend/pkg/logger"
)

// CategoryLanding serves the bestsellers and hero image of a gender section.
func CategoryLanding(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}
		landing, err := svc.Landing(r.Context(), chi.URLParam(r, "gender"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, landing)
	}
}
