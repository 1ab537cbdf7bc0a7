package enums

import "fmt"

// ScopeCollection names a child collection of scope rows on a scheme.
type ScopeCollection string

const (
	ScopeCollectionCustomer      ScopeCollection = "customer"
	ScopeCollectionCustomerGroup ScopeCollection = "customer_group"
	ScopeCollectionTerritory     ScopeCollection = "territory"
	ScopeCollectionSupplier      ScopeCollection = "supplier"
	ScopeCollectionSupplierGroup ScopeCollection = "supplier_group"
	ScopeCollectionItemCode      ScopeCollection = "item_code"
	ScopeCollectionItemGroup     ScopeCollection = "item_group"
)

var validScopeCollections = []ScopeCollection{
	ScopeCollectionCustomer,
	ScopeCollectionCustomerGroup,
	ScopeCollectionTerritory,
	ScopeCollectionSupplier,
	ScopeCollectionSupplierGroup,
	ScopeCollectionItemCode,
	ScopeCollectionItemGroup,
}

// ScopeCollections returns the known collections in canonical order.
func ScopeCollections() []ScopeCollection {
	out := make([]ScopeCollection, len(validScopeCollections))
	copy(out, validScopeCollections)
	return out
}

// String implements fmt.Stringer.
func (c ScopeCollection) String() string {
	return string(c)
}

// IsValid reports whether the collection is known.
func (c ScopeCollection) IsValid() bool {
	for _, candidate := range validScopeCollections {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseScopeCollection converts raw input into a ScopeCollection.
func ParseScopeCollection(value string) (ScopeCollection, error) {
	for _, candidate := range validScopeCollections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid scope collection %q", value)
}
