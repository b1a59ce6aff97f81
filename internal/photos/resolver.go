package photos

import (
	"net/url"
	"strings"
)

const (
	// NoImagePlaceholder is served when a key cannot be turned into a real URL.
	NoImagePlaceholder = "https://dummyimage.com/300x400/cccccc/969696.png&text=No+Image"
	// UploadFailedPlaceholder is stored in place of a key whose upload failed.
	UploadFailedPlaceholder = "https://dummyimage.com/300x400/cccccc/969696.png&text=Upload+Failed"
)

var placeholderHosts = []string{
	"dummyimage.com",
	"via.placeholder.com",
	"placeholder.com",
}

// Resolver turns stored keys into public URLs.
type Resolver struct {
	baseURL string
	host    string
}

// NewResolver builds a resolver for the configured public base URL. An empty base means
// no storage is configured and relative keys resolve to the placeholder.
func NewResolver(baseURL string) Resolver {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	r := Resolver{baseURL: base}
	if base != "" {
		if parsed, err := url.Parse(base); err == nil {
			r.host = strings.ToLower(parsed.Hostname())
		}
	}
	return r
}

// BaseURL returns the normalized base without a trailing slash.
func (r Resolver) BaseURL() string {
	return r.baseURL
}

// Configured reports whether a base URL is set.
func (r Resolver) Configured() bool {
	return r.baseURL != ""
}

// Resolve returns the public URL for a storage key or an already absolute URL.
func (r Resolver) Resolve(keyOrURL string) string {
	if keyOrURL == "" {
		return ""
	}
	if IsAbsoluteURL(keyOrURL) {
		return keyOrURL
	}
	if r.baseURL == "" {
		return NoImagePlaceholder
	}
	return r.baseURL + "/" + strings.TrimLeft(keyOrURL, "/")
}

// Owns reports whether an absolute URL points at the configured storage host.
func (r Resolver) Owns(rawURL string) bool {
	if r.host == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Hostname(), r.host)
}

// RelativeKey strips the base URL prefix from an absolute URL. ok is false when the URL
// does not live under the base.
func (r Resolver) RelativeKey(rawURL string) (string, bool) {
	if r.baseURL == "" {
		return "", false
	}
	prefix := r.baseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(rawURL, prefix)
	if key == "" || strings.ContainsAny(key, "?#") {
		return "", false
	}
	return key, true
}

// IsAbsoluteURL reports whether s starts with a recognised scheme.
func IsAbsoluteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsPlaceholder reports whether the URL points at a known placeholder image service.
func IsPlaceholder(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, host := range placeholderHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
