// Package env reads the few settings that are needed before config.Load runs,
// such as the log format used while the config itself is being parsed.
package env

import (
	"os"
	"strings"
)

// FirstNonEmpty returns the first of keys that is set to a non-blank value,
// or fallback. Values are trimmed and lower-cased.
func FirstNonEmpty(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return strings.ToLower(val)
		}
	}
	return fallback
}
