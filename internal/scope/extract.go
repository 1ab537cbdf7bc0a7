package scope

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// Lookup resolves group references against the reference tables.
type Lookup interface {
	ItemCodesInGroups(ctx context.Context, groups []string) ([]string, error)
	CustomersInGroups(ctx context.Context, groups []string) ([]string, error)
	CustomersInTerritories(ctx context.Context, territories []string) ([]string, error)
	SuppliersInGroups(ctx context.Context, groups []string) ([]string, error)
}

// ItemScope holds the concrete item codes a scheme targets plus the item groups
// it was configured with. No codes means every item is in scope.
type ItemScope struct {
	Codes  Set
	Groups Set
}

// Unrestricted reports whether every line item is in scope.
func (s ItemScope) Unrestricted() bool {
	return s.Codes.Empty()
}

// Matches reports whether an item code is in scope.
func (s ItemScope) Matches(itemCode string) bool {
	return s.Unrestricted() || s.Codes.Has(itemCode)
}

// PartySets holds the five party dimensions of a scheme.
type PartySets struct {
	Customers      Set
	CustomerGroups Set
	Territories    Set
	Suppliers      Set
	SupplierGroups Set
}

// Empty reports whether the scheme declares no party restriction at all.
func (p PartySets) Empty() bool {
	return p.Customers.Empty() &&
		p.CustomerGroups.Empty() &&
		p.Territories.Empty() &&
		p.Suppliers.Empty() &&
		p.SupplierGroups.Empty()
}

// LookupError reports a failed reference-table query. The partial result returned
// alongside it only contains what could be resolved.
type LookupError struct {
	Op  string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("scope lookup %s: %v", e.Op, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ResolveItemScope returns explicit item codes plus the codes of every item in the
// configured item groups. On lookup failure the explicit codes are still returned
// together with a *LookupError.
func ResolveItemScope(ctx context.Context, scheme models.PromotionalScheme, lookup Lookup) (ItemScope, error) {
	scope := ItemScope{
		Codes:  Values(scheme.ScopeRows, enums.ScopeCollectionItemCode),
		Groups: Values(scheme.ScopeRows, enums.ScopeCollectionItemGroup),
	}
	if scope.Groups.Empty() {
		return scope, nil
	}
	if lookup == nil {
		return scope, &LookupError{Op: "item_codes_in_groups", Err: fmt.Errorf("no lookup configured")}
	}
	codes, err := lookup.ItemCodesInGroups(ctx, scope.Groups.Sorted())
	if err != nil {
		return scope, &LookupError{Op: "item_codes_in_groups", Err: err}
	}
	scope.Codes.Add(codes...)
	return scope, nil
}

// RawPartyScope reads the five party dimensions without expanding groups. The
// apply path compares them against the invoice's own group and territory fields.
func RawPartyScope(scheme models.PromotionalScheme) PartySets {
	return PartySets{
		Customers:      Values(scheme.ScopeRows, enums.ScopeCollectionCustomer),
		CustomerGroups: Values(scheme.ScopeRows, enums.ScopeCollectionCustomerGroup),
		Territories:    Values(scheme.ScopeRows, enums.ScopeCollectionTerritory),
		Suppliers:      Values(scheme.ScopeRows, enums.ScopeCollectionSupplier),
		SupplierGroups: Values(scheme.ScopeRows, enums.ScopeCollectionSupplierGroup),
	}
}

// ExpandedPartyScope is the reporting variant: customer groups and territories
// are expanded into customers, supplier groups into suppliers. Every failed
// lookup is reported in the combined error; the remaining expansions still run.
func ExpandedPartyScope(ctx context.Context, scheme models.PromotionalScheme, lookup Lookup) (PartySets, error) {
	sets := RawPartyScope(scheme)
	if lookup == nil {
		if sets.CustomerGroups.Empty() && sets.Territories.Empty() && sets.SupplierGroups.Empty() {
			return sets, nil
		}
		return sets, &LookupError{Op: "expand_parties", Err: fmt.Errorf("no lookup configured")}
	}

	var errs error
	if !sets.CustomerGroups.Empty() {
		names, err := lookup.CustomersInGroups(ctx, sets.CustomerGroups.Sorted())
		if err != nil {
			errs = multierr.Append(errs, &LookupError{Op: "customers_in_groups", Err: err})
		} else {
			sets.Customers.Add(names...)
		}
	}
	if !sets.Territories.Empty() {
		names, err := lookup.CustomersInTerritories(ctx, sets.Territories.Sorted())
		if err != nil {
			errs = multierr.Append(errs, &LookupError{Op: "customers_in_territories", Err: err})
		} else {
			sets.Customers.Add(names...)
		}
	}
	if !sets.SupplierGroups.Empty() {
		names, err := lookup.SuppliersInGroups(ctx, sets.SupplierGroups.Sorted())
		if err != nil {
			errs = multierr.Append(errs, &LookupError{Op: "suppliers_in_groups", Err: err})
		} else {
			sets.Suppliers.Add(names...)
		}
	}
	return sets, errs
}
