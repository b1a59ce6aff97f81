package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims s, collapses inner whitespace runs into one space, drops
// control characters and caps the result at maxRunes runes (0 means no cap).
// Catalog filters compare against stored category names, so "Dress  Shoes"
// and "Dress Shoes" must match the same rows.
func SanitizeString(s string, maxRunes int) string {
	var b strings.Builder
	b.Grow(len(s))
	count := 0
	pendingSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			pendingSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		if pendingSpace {
			if maxRunes > 0 && count+1 >= maxRunes {
				break
			}
			b.WriteByte(' ')
			count++
			pendingSpace = false
		}
		if maxRunes > 0 && count >= maxRunes {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
