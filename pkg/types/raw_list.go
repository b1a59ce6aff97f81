package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// RawList is an ordered JSON array persisted as a single document column. Elements are
// kept undecoded so heterogeneous historic shapes survive a read/write round trip.
type RawList []json.RawMessage

// Value marshals the list into a JSON array; nil persists as [].
func (r RawList) Value() (driver.Value, error) {
	if len(r) == 0 {
		return "[]", nil
	}
	buf, err := json.Marshal([]json.RawMessage(r))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON document into the list. NULL, empty and `null` scan to an empty
// list; a non-array document is wrapped as a single element.
func (r *RawList) Scan(value interface{}) error {
	if value == nil {
		*r = RawList{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("raw list: unsupported scan type %T", value)
	}

	parsed, err := ParseRawList(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRawList decodes raw JSON bytes with the same leniency as Scan.
func ParseRawList(raw []byte) (RawList, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return RawList{}, nil
	}
	if trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("raw list: invalid json document")
		}
		elem := make(json.RawMessage, len(trimmed))
		copy(elem, trimmed)
		return RawList{elem}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("raw list: %w", err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return RawList(items), nil
}

// GormDataType reports the generic column type.
func (RawList) GormDataType() string {
	return "json"
}

// GormDBDataType picks jsonb on Postgres and JSON elsewhere.
func (RawList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}
