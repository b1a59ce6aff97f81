package photos

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopfront/storefront-backend/pkg/types"
)

// Record is the canonical persisted descriptor of one product photo.
type Record struct {
	StorageKey  string `json:"storageKey"`
	DisplayName string `json:"displayName"`
	Ordinal     int    `json:"ordinal"`
}

// legacyRecord covers both the canonical field names and the ones written by the
// previous storage integration.
type legacyRecord struct {
	StorageKey  *string         `json:"storageKey"`
	DisplayName *string         `json:"displayName"`
	Ordinal     json.RawMessage `json:"ordinal"`

	LegacyURL   *string         `json:"photoAzureUrl"`
	LegacyName  *string         `json:"photoName"`
	LegacyIndex json.RawMessage `json:"photoIndex"`
}

// decodeRecord reads a structured element. ok is false when the element is not an
// object or carries no storage-key field at all.
func decodeRecord(raw json.RawMessage) (Record, bool) {
	var lr legacyRecord
	if err := json.Unmarshal(raw, &lr); err != nil {
		return Record{}, false
	}

	var rec Record
	switch {
	case lr.StorageKey != nil:
		rec.StorageKey = *lr.StorageKey
	case lr.LegacyURL != nil:
		rec.StorageKey = *lr.LegacyURL
	default:
		return Record{}, false
	}

	switch {
	case lr.DisplayName != nil:
		rec.DisplayName = *lr.DisplayName
	case lr.LegacyName != nil:
		rec.DisplayName = *lr.LegacyName
	}

	if ord, ok := parseOrdinal(lr.Ordinal); ok {
		rec.Ordinal = ord
	} else if ord, ok := parseOrdinal(lr.LegacyIndex); ok {
		rec.Ordinal = ord
	}
	return rec, true
}

// hasKeyField reports whether the object carries a storage-key field.
func hasKeyField(obj map[string]json.RawMessage) bool {
	if _, ok := obj["storageKey"]; ok {
		return true
	}
	_, ok := obj["photoAzureUrl"]
	return ok
}

// parseOrdinal accepts both numbers and numeric strings, which historic writers mixed.
func parseOrdinal(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n < 0 {
			return 0, false
		}
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v < 0 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// Encode serializes canonical records into a persisted document.
func Encode(records []Record) (types.RawList, error) {
	out := make(types.RawList, 0, len(records))
	for i, rec := range records {
		buf, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode photo %d: %w", i, err)
		}
		out = append(out, buf)
	}
	return out, nil
}

// MaxOrdinal returns the highest ordinal in records, or -1 when there are none.
func MaxOrdinal(records []Record) int {
	highest := -1
	for _, rec := range records {
		if rec.Ordinal > highest {
			highest = rec.Ordinal
		}
	}
	return highest
}

// NextOrdinal is the first ordinal a new upload may take after records.
func NextOrdinal(records []Record) int {
	return MaxOrdinal(records) + 1
}
