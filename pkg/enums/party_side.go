package enums

import (
	"fmt"
	"strings"
)

// PartySide selects which side of a trade a scheme targets.
type PartySide string

const (
	PartySideSelling PartySide = "selling"
	PartySideBuying  PartySide = "buying"
)

var validPartySides = []PartySide{
	PartySideSelling,
	PartySideBuying,
}

// String implements fmt.Stringer.
func (p PartySide) String() string {
	return string(p)
}

// IsValid reports whether the value is a known party side.
func (p PartySide) IsValid() bool {
	for _, candidate := range validPartySides {
		if candidate == p {
			return true
		}
	}
	return false
}

// InvoiceKind returns the transaction document kind evaluated for this side.
// Unknown sides fall back to sales.
func (p PartySide) InvoiceKind() InvoiceKind {
	if p == PartySideBuying {
		return InvoiceKindPurchase
	}
	return InvoiceKindSales
}

// PartyType returns the report display label for the side.
func (p PartySide) PartyType() PartyType {
	if p == PartySideBuying {
		return PartyTypeSupplier
	}
	return PartyTypeCustomer
}

// ParsePartySide converts raw input into a PartySide. Matching is case-insensitive
// so "Selling" and "selling" are equivalent.
func ParsePartySide(value string) (PartySide, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPartySides {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party side %q", value)
}
