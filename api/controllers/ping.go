package controllers

import (
	"net/http"

	"github.com/shopfront/storefront-backend/api/middleware"
	"github.com/shopfront/storefront-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

// AdminPing lets the admin console verify its token.
func AdminPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"scope": "admin", "status": "ok", "admin": middleware.IsAdmin(r.Context())}
		responses.WriteSuccess(w, payload)
	}
}
