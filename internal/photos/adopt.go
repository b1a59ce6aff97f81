package photos

import (
	"encoding/json"
	"reflect"
)

// Adopt converts a recognised collection into canonical records for a write. Legacy URLs
// under the storage base become relative keys; any other URL is kept absolute, which the
// resolver passes through unchanged. ok is false for unrecognised collections, which must
// be preserved verbatim by the caller.
func Adopt(c Collection, resolver Resolver) ([]Record, bool) {
	switch c.Shape {
	case ShapeEmpty:
		return []Record{}, true
	case ShapeLegacyURLs:
		urls := legacyURLs(c.Raw)
		out := make([]Record, 0, len(urls))
		for i, u := range urls {
			if u == "" {
				continue
			}
			out = append(out, Record{
				StorageKey:  adoptKey(u, resolver),
				DisplayName: KeyFromURL(u),
				Ordinal:     i,
			})
		}
		return out, true
	case ShapeCorrupted:
		joined := reconstructCorrupted(c.Raw[0])
		if joined == "" {
			return []Record{}, true
		}
		return []Record{{
			StorageKey:  adoptKey(joined, resolver),
			DisplayName: KeyFromURL(joined),
			Ordinal:     0,
		}}, true
	case ShapeStructured:
		recs := c.Records()
		out := make([]Record, 0, len(recs))
		for _, rec := range recs {
			if rec.StorageKey == "" {
				continue
			}
			rec.StorageKey = adoptKey(rec.StorageKey, resolver)
			out = append(out, rec)
		}
		return out, true
	default:
		return nil, false
	}
}

// RemoveDisplayed adopts the collection without the photo shown at index in its normalized
// list, and returns that photo's resolved URL. Empty legacy entries are listed too, so
// removing one yields an empty URL. ok is false for unrecognised collections and for
// indexes outside the list.
func RemoveDisplayed(c Collection, resolver Resolver, index int) ([]Record, string, bool) {
	records, ok := Adopt(c, resolver)
	if !ok || index < 0 {
		return nil, "", false
	}

	if c.Shape == ShapeLegacyURLs {
		urls := legacyURLs(c.Raw)
		if index >= len(urls) {
			return nil, "", false
		}
		out := make([]Record, 0, len(records))
		for _, rec := range records {
			if rec.Ordinal != index {
				out = append(out, rec)
			}
		}
		return out, resolver.Resolve(adoptKey(urls[index], resolver)), true
	}

	if index >= len(records) {
		return nil, "", false
	}
	out := make([]Record, 0, len(records)-1)
	out = append(out, records[:index]...)
	out = append(out, records[index+1:]...)
	return out, resolver.Resolve(records[index].StorageKey), true
}

func adoptKey(keyOrURL string, resolver Resolver) string {
	if !IsAbsoluteURL(keyOrURL) {
		return keyOrURL
	}
	if key, ok := resolver.RelativeKey(keyOrURL); ok {
		return key
	}
	return keyOrURL
}

// IsCanonical reports whether adopting the collection would leave its persisted content
// unchanged, so a backfill can skip it. Elements are compared as decoded objects because
// jsonb columns do not keep key order.
func IsCanonical(c Collection, resolver Resolver) bool {
	recs, ok := Adopt(c, resolver)
	if !ok {
		return false
	}
	if len(recs) != len(c.Raw) {
		return false
	}
	encoded, err := Encode(recs)
	if err != nil {
		return false
	}
	for i := range encoded {
		var stored, want map[string]any
		if err := json.Unmarshal(c.Raw[i], &stored); err != nil {
			return false
		}
		if err := json.Unmarshal(encoded[i], &want); err != nil {
			return false
		}
		if !reflect.DeepEqual(stored, want) {
			return false
		}
	}
	return true
}
