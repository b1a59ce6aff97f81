package photos

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	extRe      = regexp.MustCompile(`\.[^/.]+$`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)
	dashRunRe  = regexp.MustCompile(`-+`)
)

const fallbackName = "image"

// SanitizeName lowercases the base name (extension removed) and collapses every
// non-alphanumeric run to a single dash.
func SanitizeName(original string) string {
	base := extRe.ReplaceAllString(original, "")
	clean := strings.ToLower(base)
	clean = nonAlnumRe.ReplaceAllString(clean, "-")
	clean = dashRunRe.ReplaceAllString(clean, "-")
	clean = strings.Trim(clean, "-")
	if clean == "" {
		return fallbackName
	}
	return clean
}

// Extension returns .png when the name mentions png anywhere, .jpg otherwise.
func Extension(original string) string {
	if strings.Contains(strings.ToLower(original), ".png") {
		return ".png"
	}
	return ".jpg"
}

// BuildKey composes `{unixMillis}-{ordinal}-{sanitized}{ext}`.
func BuildKey(now time.Time, ordinal int, original string) string {
	return fmt.Sprintf("%d-%d-%s%s", now.UnixMilli(), ordinal, SanitizeName(original), Extension(original))
}

// KeyFromURL extracts the storage key of a resolved URL: its last path segment with any
// query string removed.
func KeyFromURL(rawURL string) string {
	trimmed := rawURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return ""
	}
	key := path.Base(trimmed)
	if key == "." || key == "/" {
		return ""
	}
	return key
}
