package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/shopfront/storefront-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter such as _page or
// _limit. Absent or blank values yield def; anything else must parse and fall
// within [min, max].
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be a whole number").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	if n < min || n > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return n, nil
}

// QueryText returns a sanitized free-text query parameter.
func QueryText(r *http.Request, key string, maxRunes int) string {
	return SanitizeString(r.URL.Query().Get(key), maxRunes)
}
