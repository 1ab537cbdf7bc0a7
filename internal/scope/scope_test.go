package scope

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

func strPtr(v string) *string { return &v }

type stubLookup struct {
	itemsByGroup     map[string][]string
	customersByGroup map[string][]string
	customersByTerr  map[string][]string
	suppliersByGroup map[string][]string
	itemErr          error
	customerGroupErr error
	calls            int
}

func (s *stubLookup) ItemCodesInGroups(_ context.Context, groups []string) ([]string, error) {
	s.calls++
	if s.itemErr != nil {
		return nil, s.itemErr
	}
	return collect(s.itemsByGroup, groups), nil
}

func (s *stubLookup) CustomersInGroups(_ context.Context, groups []string) ([]string, error) {
	s.calls++
	if s.customerGroupErr != nil {
		return nil, s.customerGroupErr
	}
	return collect(s.customersByGroup, groups), nil
}

func (s *stubLookup) CustomersInTerritories(_ context.Context, territories []string) ([]string, error) {
	s.calls++
	return collect(s.customersByTerr, territories), nil
}

func (s *stubLookup) SuppliersInGroups(_ context.Context, groups []string) ([]string, error) {
	s.calls++
	return collect(s.suppliersByGroup, groups), nil
}

func collect(m map[string][]string, keys []string) []string {
	var out []string
	for _, k := range keys {
		out = append(out, m[k]...)
	}
	return out
}

func assertSorted(t *testing.T, set Set, want ...string) {
	t.Helper()
	got := set.Sorted()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRowValuePrefersCandidatesInOrder(t *testing.T) {
	row := models.SchemeScopeRow{
		Collection: enums.ScopeCollectionCustomerGroup,
		Item:       strPtr("from-item"),
		GroupName:  strPtr("from-group"),
	}
	if v, ok := DefaultMapping().RowValue(row, enums.ScopeCollectionCustomerGroup); !ok || v != "from-item" {
		t.Fatalf("expected from-item, got %q (ok=%v)", v, ok)
	}

	row.CustomerGroup = strPtr("  Retail  ")
	if v, ok := DefaultMapping().RowValue(row, enums.ScopeCollectionCustomerGroup); !ok || v != "Retail" {
		t.Fatalf("expected Retail, got %q (ok=%v)", v, ok)
	}
}

func TestRowValueFallsBackToFirstPopulatedField(t *testing.T) {
	// item_code candidates are item_code and item; territory is outside them.
	row := models.SchemeScopeRow{Territory: strPtr("North"), Value: strPtr("ignored")}
	if v, ok := DefaultMapping().RowValue(row, enums.ScopeCollectionItemCode); !ok || v != "North" {
		t.Fatalf("expected North, got %q (ok=%v)", v, ok)
	}

	if _, ok := DefaultMapping().RowValue(models.SchemeScopeRow{Value: strPtr("   ")}, enums.ScopeCollectionItemCode); ok {
		t.Fatal("blank row should not yield a value")
	}
}

func TestValuesFiltersByCollectionAndDeduplicates(t *testing.T) {
	rows := []models.SchemeScopeRow{
		{Collection: enums.ScopeCollectionCustomer, Customer: strPtr("C1")},
		{Collection: enums.ScopeCollectionCustomer, Value: strPtr("C2")},
		{Collection: enums.ScopeCollectionCustomer, Customer: strPtr("C1")},
		{Collection: enums.ScopeCollectionSupplier, Supplier: strPtr("S1")},
		{Collection: enums.ScopeCollectionCustomer},
	}
	assertSorted(t, Values(rows, enums.ScopeCollectionCustomer), "C1", "C2")
	assertSorted(t, Values(rows, enums.ScopeCollectionSupplier), "S1")
	if !Values(rows, enums.ScopeCollectionTerritory).Empty() {
		t.Fatal("expected no territories")
	}
}

func TestNewMappingRejectsUnknownFields(t *testing.T) {
	if _, err := NewMapping(map[enums.ScopeCollection][]string{
		enums.ScopeCollectionCustomer: {"customer", "nickname"},
	}); err == nil {
		t.Fatal("expected error for unknown field")
	}

	if _, err := NewMapping(map[enums.ScopeCollection][]string{
		enums.ScopeCollectionCustomer: {},
	}); err == nil {
		t.Fatal("expected error for empty candidate list")
	}
}

func TestEntriesAcceptStringsAndObjects(t *testing.T) {
	var payload struct {
		Customers  Entries `json:"customers"`
		ItemGroups Entries `json:"item_groups"`
	}
	body := `{"customers":["C1", {"value":"C2"}, "", null], "item_groups":[{"group":"Beverages"}]}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	rows := payload.Customers.Rows(enums.ScopeCollectionCustomer)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Customer == nil || *rows[0].Customer != "C1" || rows[0].Idx != 1 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].Value == nil || *rows[1].Value != "C2" || rows[1].Collection != enums.ScopeCollectionCustomer {
		t.Fatalf("unexpected second row %+v", rows[1])
	}

	groups := payload.ItemGroups.Rows(enums.ScopeCollectionItemGroup)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group row, got %d", len(groups))
	}
	assertSorted(t, Values(groups, enums.ScopeCollectionItemGroup), "Beverages")
}

func TestEntriesRejectNumbers(t *testing.T) {
	var entries Entries
	if err := json.Unmarshal([]byte(`[1,2]`), &entries); err == nil {
		t.Fatal("expected error for numeric entries")
	}
	if err := json.Unmarshal([]byte(`{"customer":"C1"}`), &entries); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestEntriesRoundTripThroughFromRows(t *testing.T) {
	rows := []models.SchemeScopeRow{
		{Collection: enums.ScopeCollectionItemCode, ItemCode: strPtr("SKU-1")},
	}
	grouped := FromRows(rows)
	raw, err := json.Marshal(grouped[enums.ScopeCollectionItemCode])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got, want any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode marshalled entries: %v", err)
	}
	_ = json.Unmarshal([]byte(`[{"collection":"item_code","idx":0,"item_code":"SKU-1"}]`), &want)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected json %s", raw)
	}
}

func schemeWithRows(rows ...models.SchemeScopeRow) models.PromotionalScheme {
	return models.PromotionalScheme{Name: "SCHEME", ScopeRows: rows}
}

func TestResolveItemScopeUnionsGroups(t *testing.T) {
	lookup := &stubLookup{itemsByGroup: map[string][]string{"Drinks": {"COLA", "SODA"}}}
	scheme := schemeWithRows(
		models.SchemeScopeRow{Collection: enums.ScopeCollectionItemCode, ItemCode: strPtr("CHIPS")},
		models.SchemeScopeRow{Collection: enums.ScopeCollectionItemGroup, ItemGroup: strPtr("Drinks")},
	)

	got, err := ResolveItemScope(context.Background(), scheme, lookup)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	assertSorted(t, got.Codes, "CHIPS", "COLA", "SODA")
	assertSorted(t, got.Groups, "Drinks")
	if !got.Matches("COLA") || got.Matches("WATER") {
		t.Fatal("unexpected item match result")
	}
}

func TestResolveItemScopeEmptyIsUnrestricted(t *testing.T) {
	lookup := &stubLookup{}
	got, err := ResolveItemScope(context.Background(), schemeWithRows(), lookup)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !got.Unrestricted() || !got.Matches("ANYTHING") {
		t.Fatal("empty item scope should match every item")
	}
	if lookup.calls != 0 {
		t.Fatalf("no lookup expected without item groups, got %d calls", lookup.calls)
	}
}

func TestResolveItemScopeReportsLookupFailure(t *testing.T) {
	lookup := &stubLookup{itemErr: errors.New("db down")}
	scheme := schemeWithRows(
		models.SchemeScopeRow{Collection: enums.ScopeCollectionItemGroup, ItemGroup: strPtr("Drinks")},
	)
	got, err := ResolveItemScope(context.Background(), scheme, lookup)

	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected *LookupError, got %v", err)
	}
	if lookupErr.Op != "item_codes_in_groups" {
		t.Fatalf("unexpected op %q", lookupErr.Op)
	}
	if !got.Unrestricted() {
		t.Fatal("failed expansion should leave no concrete codes")
	}
	assertSorted(t, got.Groups, "Drinks")
}

func TestRawPartyScopeDoesNotExpand(t *testing.T) {
	scheme := schemeWithRows(
		models.SchemeScopeRow{Collection: enums.ScopeCollectionCustomerGroup, CustomerGroup: strPtr("Retail")},
	)
	sets := RawPartyScope(scheme)
	if sets.Empty() {
		t.Fatal("expected configured party scope")
	}
	if !sets.Customers.Empty() {
		t.Fatalf("groups must not expand into customers, got %v", sets.Customers.Sorted())
	}
	if !sets.CustomerGroups.Has("Retail") {
		t.Fatal("expected Retail customer group")
	}

	if !RawPartyScope(schemeWithRows()).Empty() {
		t.Fatal("expected empty party scope")
	}
}

func TestExpandedPartyScopeExpandsGroupsAndTerritories(t *testing.T) {
	lookup := &stubLookup{
		customersByGroup: map[string][]string{"Retail": {"C2", "C3"}},
		customersByTerr:  map[string][]string{"North": {"C4"}},
		suppliersByGroup: map[string][]string{"Local": {"S1"}},
	}
	scheme := schemeWithRows(
		models.SchemeScopeRow{Collection: enums.ScopeCollectionCustomer, Customer: strPtr("C1")},
		models.SchemeScopeRow{Collection: enums.ScopeCollectionCustomerGroup, CustomerGroup: strPtr("Retail")},
		models.SchemeScopeRow{Collection: enums.ScopeCollectionTerritory, Territory: strPtr("North")},
		models.SchemeScopeRow{Collection: enums.ScopeCollectionSupplierGroup, SupplierGroup: strPtr("Local")},
	)

	sets, err := ExpandedPartyScope(context.Background(), scheme, lookup)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	assertSorted(t, sets.Customers, "C1", "C2", "C3", "C4")
	assertSorted(t, sets.Suppliers, "S1")
	if !sets.CustomerGroups.Has("Retail") {
		t.Fatal("expected raw customer group kept")
	}
}

func TestExpandedPartyScopeDegradesPerLookup(t *testing.T) {
	lookup := &stubLookup{
		customerGroupErr: errors.New("timeout"),
		customersByTerr:  map[string][]string{"North": {"C4"}},
	}
	scheme := schemeWithRows(
		models.SchemeScopeRow{Collection: enums.ScopeCollectionCustomerGroup, CustomerGroup: strPtr("Retail")},
		models.SchemeScopeRow{Collection: enums.ScopeCollectionTerritory, Territory: strPtr("North")},
	)

	sets, err := ExpandedPartyScope(context.Background(), scheme, lookup)
	if err == nil {
		t.Fatal("expected lookup error")
	}
	assertSorted(t, sets.Customers, "C4")
}
