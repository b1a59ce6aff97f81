package photos

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/shopfront/storefront-backend/pkg/metrics"
	"github.com/shopfront/storefront-backend/pkg/types"
)

// Shape identifies which historic layout a photo document uses.
type Shape string

const (
	ShapeEmpty        Shape = "empty"
	ShapeLegacyURLs   Shape = "legacy_urls"
	ShapeStructured   Shape = "structured"
	ShapeCorrupted    Shape = "corrupted"
	ShapeUnrecognized Shape = "unrecognized"
)

func (s Shape) String() string {
	return string(s)
}

// Collection is a photo document tagged with the shape detected from its first element.
type Collection struct {
	Shape Shape
	Raw   types.RawList
}

// Classify decides the shape once, from element 0. Later elements are not inspected, so
// mixed lists are handled according to their first element.
func Classify(raw types.RawList) Collection {
	c := Collection{Raw: raw}
	if len(raw) == 0 {
		c.Shape = ShapeEmpty
		return c
	}

	first := raw[0]
	if _, ok := legacyString(first); ok {
		c.Shape = ShapeLegacyURLs
		return c
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(first, &obj); err != nil {
		c.Shape = ShapeUnrecognized
		return c
	}
	_, has0 := obj["0"]
	_, has1 := obj["1"]
	switch {
	case has0 && has1:
		c.Shape = ShapeCorrupted
	case hasKeyField(obj):
		c.Shape = ShapeStructured
	default:
		c.Shape = ShapeUnrecognized
	}
	return c
}

// Records decodes a structured collection. Elements without a key field are skipped.
func (c Collection) Records() []Record {
	if c.Shape != ShapeStructured {
		return nil
	}
	out := make([]Record, 0, len(c.Raw))
	for _, elem := range c.Raw {
		if rec, ok := decodeRecord(elem); ok {
			out = append(out, rec)
		}
	}
	return out
}

// List is the normalized read-side view of a photo document.
type List struct {
	URLs []string
	// Unrecognized carries the raw document when its shape could not be interpreted.
	Unrecognized types.RawList
}

// MarshalJSON renders URLs, or the raw document for unrecognised shapes.
func (l List) MarshalJSON() ([]byte, error) {
	if l.Unrecognized != nil {
		return json.Marshal([]json.RawMessage(l.Unrecognized))
	}
	if l.URLs == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.URLs)
}

// First returns the first URL or an empty string.
func (l List) First() string {
	if len(l.URLs) == 0 {
		return ""
	}
	return l.URLs[0]
}

// Len returns the number of URLs.
func (l List) Len() int {
	return len(l.URLs)
}

// Normalizer converts any stored photo document into URL strings.
type Normalizer struct {
	resolver Resolver
	metrics  *metrics.PhotoMetrics
}

func NewNormalizer(resolver Resolver, m *metrics.PhotoMetrics) Normalizer {
	return Normalizer{resolver: resolver, metrics: m}
}

// Normalize never fails; unexpected content degrades rather than erroring.
func (n Normalizer) Normalize(raw types.RawList) List {
	c := Classify(raw)
	n.metrics.IncShape(c.Shape.String())

	switch c.Shape {
	case ShapeEmpty:
		return List{URLs: []string{}}
	case ShapeLegacyURLs:
		return List{URLs: legacyURLs(c.Raw)}
	case ShapeCorrupted:
		if joined := reconstructCorrupted(c.Raw[0]); joined != "" {
			return List{URLs: []string{joined}}
		}
		return List{URLs: []string{}}
	case ShapeStructured:
		urls := make([]string, 0, len(c.Raw))
		for _, rec := range c.Records() {
			if u := n.resolver.Resolve(rec.StorageKey); u != "" {
				urls = append(urls, u)
			}
		}
		return List{URLs: urls}
	default:
		return List{Unrecognized: c.Raw}
	}
}

func legacyURLs(raw types.RawList) []string {
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		if s, ok := legacyString(elem); ok {
			out = append(out, s)
		}
	}
	return out
}

// legacyString decodes a JSON string element. null and every other literal are rejected.
func legacyString(elem json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(elem)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return "", false
	}
	return s, true
}

// reconstructCorrupted rebuilds a string that was serialized character by character into
// an object with numeric keys.
func reconstructCorrupted(elem json.RawMessage) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(elem, &obj); err != nil {
		return ""
	}

	type part struct {
		idx int
		val string
	}
	parts := make([]part, 0, len(obj))
	for k, v := range obj {
		if !isDigits(k) {
			continue
		}
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		parts = append(parts, part{idx: idx, val: s})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].idx < parts[j].idx })

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.val)
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
