package enums

import (
	"fmt"
	"strings"
)

// Gender partitions the catalog into its three storefront sections.
type Gender string

const (
	GenderMen      Gender = "men"
	GenderWomen    Gender = "women"
	GenderChildren Gender = "children"
)

var validGenders = []Gender{
	GenderMen,
	GenderWomen,
	GenderChildren,
}

// String returns the literal string for the gender.
func (g Gender) String() string {
	return string(g)
}

// IsValid reports whether the gender is known.
func (g Gender) IsValid() bool {
	for _, candidate := range validGenders {
		if candidate == g {
			return true
		}
	}
	return false
}

// Genders returns every catalog section in display order.
func Genders() []Gender {
	out := make([]Gender, len(validGenders))
	copy(out, validGenders)
	return out
}

// ParseGender converts raw input into a Gender.
func ParseGender(value string) (Gender, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validGenders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gender %q", value)
}
