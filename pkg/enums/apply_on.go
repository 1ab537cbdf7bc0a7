package enums

import (
	"fmt"
	"strings"
)

// ApplyOn picks the display axis of a scheme: concrete item codes or item groups.
type ApplyOn string

const (
	ApplyOnItemCode  ApplyOn = "item_code"
	ApplyOnItemGroup ApplyOn = "item_group"
)

var validApplyOn = []ApplyOn{
	ApplyOnItemCode,
	ApplyOnItemGroup,
}

// String implements fmt.Stringer.
func (a ApplyOn) String() string {
	return string(a)
}

// IsValid reports whether the value is a known apply-on mode.
func (a ApplyOn) IsValid() bool {
	for _, candidate := range validApplyOn {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApplyOn converts raw input into ApplyOn.
func ParseApplyOn(value string) (ApplyOn, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validApplyOn {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid apply_on %q", value)
}
