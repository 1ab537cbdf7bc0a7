package scope

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// Named scope row fields, in canonical column order. The fallback policy walks
// them in this order.
const (
	FieldItemCode      = "item_code"
	FieldItemGroup     = "item_group"
	FieldCustomer      = "customer"
	FieldCustomerGroup = "customer_group"
	FieldTerritory     = "territory"
	FieldSupplier      = "supplier"
	FieldSupplierGroup = "supplier_group"
	FieldItem          = "item"
	FieldGroup         = "group"
	FieldValue         = "value"
)

type fieldGetter func(models.SchemeScopeRow) *string

var rowFields = map[string]fieldGetter{
	FieldItemCode:      func(r models.SchemeScopeRow) *string { return r.ItemCode },
	FieldItemGroup:     func(r models.SchemeScopeRow) *string { return r.ItemGroup },
	FieldCustomer:      func(r models.SchemeScopeRow) *string { return r.Customer },
	FieldCustomerGroup: func(r models.SchemeScopeRow) *string { return r.CustomerGroup },
	FieldTerritory:     func(r models.SchemeScopeRow) *string { return r.Territory },
	FieldSupplier:      func(r models.SchemeScopeRow) *string { return r.Supplier },
	FieldSupplierGroup: func(r models.SchemeScopeRow) *string { return r.SupplierGroup },
	FieldItem:          func(r models.SchemeScopeRow) *string { return r.Item },
	FieldGroup:         func(r models.SchemeScopeRow) *string { return r.GroupName },
	FieldValue:         func(r models.SchemeScopeRow) *string { return r.Value },
}

var canonicalOrder = []string{
	FieldItemCode,
	FieldItemGroup,
	FieldCustomer,
	FieldCustomerGroup,
	FieldTerritory,
	FieldSupplier,
	FieldSupplierGroup,
	FieldItem,
	FieldGroup,
	FieldValue,
}

// candidateTable lists, per collection, the fields tried in priority order.
var candidateTable = map[enums.ScopeCollection][]string{
	enums.ScopeCollectionCustomer:      {FieldCustomer, FieldItem, FieldValue},
	enums.ScopeCollectionCustomerGroup: {FieldCustomerGroup, FieldItem, FieldValue, FieldGroup},
	enums.ScopeCollectionTerritory:     {FieldTerritory, FieldItem, FieldValue},
	enums.ScopeCollectionSupplier:      {FieldSupplier, FieldItem, FieldValue},
	enums.ScopeCollectionSupplierGroup: {FieldSupplierGroup, FieldItem, FieldValue, FieldGroup},
	enums.ScopeCollectionItemCode:      {FieldItemCode, FieldItem},
	enums.ScopeCollectionItemGroup:     {FieldItemGroup, FieldGroup},
}

// Mapping resolves scope row values per collection.
type Mapping struct {
	candidates map[enums.ScopeCollection][]fieldGetter
	primary    map[enums.ScopeCollection]string
	fallback   []fieldGetter
}

var defaultMapping = mustMapping(candidateTable)

// DefaultMapping returns the mapping built from the static candidate table.
func DefaultMapping() *Mapping {
	return defaultMapping
}

// NewMapping builds a mapping from a collection → candidate field table. Unknown
// field names are rejected.
func NewMapping(table map[enums.ScopeCollection][]string) (*Mapping, error) {
	m := &Mapping{
		candidates: make(map[enums.ScopeCollection][]fieldGetter, len(table)),
		primary:    make(map[enums.ScopeCollection]string, len(table)),
	}
	for collection, fields := range table {
		if len(fields) == 0 {
			return nil, fmt.Errorf("collection %q has no candidate fields", collection)
		}
		getters := make([]fieldGetter, 0, len(fields))
		for _, name := range fields {
			getter, ok := rowFields[name]
			if !ok {
				return nil, fmt.Errorf("collection %q references unknown field %q", collection, name)
			}
			getters = append(getters, getter)
		}
		m.candidates[collection] = getters
		m.primary[collection] = fields[0]
	}
	for _, name := range canonicalOrder {
		m.fallback = append(m.fallback, rowFields[name])
	}
	return m, nil
}

func mustMapping(table map[enums.ScopeCollection][]string) *Mapping {
	m, err := NewMapping(table)
	if err != nil {
		panic(err)
	}
	return m
}

// PrimaryField is the field a flat string entry of the collection is stored in.
// Unmapped collections use "value".
func (m *Mapping) PrimaryField(collection enums.ScopeCollection) string {
	if field, ok := m.primary[collection]; ok {
		return field
	}
	return FieldValue
}

// RowValue extracts the value of a single row: the first populated candidate of
// its collection, else the first populated field in canonical order.
func (m *Mapping) RowValue(row models.SchemeScopeRow, collection enums.ScopeCollection) (string, bool) {
	for _, getter := range m.candidates[collection] {
		if v := trimmed(getter(row)); v != "" {
			return v, true
		}
	}
	for _, getter := range m.fallback {
		if v := trimmed(getter(row)); v != "" {
			return v, true
		}
	}
	return "", false
}

// Values returns the distinct values of every row that belongs to collection.
func (m *Mapping) Values(rows []models.SchemeScopeRow, collection enums.ScopeCollection) Set {
	out := NewSet()
	for _, row := range rows {
		if row.Collection != collection {
			continue
		}
		if v, ok := m.RowValue(row, collection); ok {
			out.Add(v)
		}
	}
	return out
}

// Values extracts collection values with the default mapping.
func Values(rows []models.SchemeScopeRow, collection enums.ScopeCollection) Set {
	return defaultMapping.Values(rows, collection)
}

func setField(row *models.SchemeScopeRow, field, value string) {
	v := value
	switch field {
	case FieldItemCode:
		row.ItemCode = &v
	case FieldItemGroup:
		row.ItemGroup = &v
	case FieldCustomer:
		row.Customer = &v
	case FieldCustomerGroup:
		row.CustomerGroup = &v
	case FieldTerritory:
		row.Territory = &v
	case FieldSupplier:
		row.Supplier = &v
	case FieldSupplierGroup:
		row.SupplierGroup = &v
	case FieldItem:
		row.Item = &v
	case FieldGroup:
		row.GroupName = &v
	default:
		row.Value = &v
	}
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
