package reports

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/promoschemes/pkg/enums"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestTotalsQueryItemCodeMode(t *testing.T) {
	query, args := TotalsQuery(TotalsParams{
		Side:      enums.PartySideSelling,
		From:      date(2026, 3, 1),
		To:        date(2026, 3, 31),
		Parties:   []string{"Acme", "Beta"},
		ItemCodes: []string{"COLA", "TEA"},
	})

	assertQuery(t, query, "SELECT inv.customer AS party, ii.item_code AS item_key, "+
		"SUM(COALESCE(ii.net_amount, ii.base_amount, ii.amount, 0)) AS amount, "+
		"SUM(COALESCE(ii.qty, 0)) AS qty "+
		"FROM invoices inv JOIN invoice_items ii ON ii.invoice_id = inv.id "+
		"WHERE inv.kind = ? AND inv.docstatus = ? AND inv.posting_date BETWEEN ? AND ? "+
		"AND inv.customer IN ? AND ii.item_code IN ? "+
		"GROUP BY inv.customer, ii.item_code")
	assertArgs(t, args, []any{
		"sales", 1, *date(2026, 3, 1), *date(2026, 3, 31),
		[]string{"Acme", "Beta"}, []string{"COLA", "TEA"},
	})
}

func TestTotalsQueryItemGroupModeForSuppliers(t *testing.T) {
	query, args := TotalsQuery(TotalsParams{
		Side:       enums.PartySideBuying,
		To:         date(2026, 6, 30),
		ByGroup:    true,
		ItemGroups: []string{"Beverages"},
	})

	assertQuery(t, query, "SELECT inv.supplier AS party, i.item_group AS item_key, "+
		"SUM(COALESCE(ii.net_amount, ii.base_amount, ii.amount, 0)) AS amount, "+
		"SUM(COALESCE(ii.qty, 0)) AS qty "+
		"FROM invoices inv JOIN invoice_items ii ON ii.invoice_id = inv.id "+
		"JOIN items i ON i.code = ii.item_code "+
		"WHERE inv.kind = ? AND inv.docstatus = ? AND inv.posting_date <= ? "+
		"AND i.item_group IN ? "+
		"GROUP BY inv.supplier, i.item_group")
	assertArgs(t, args, []any{"purchase", 1, *date(2026, 6, 30), []string{"Beverages"}})
}

func TestTotalsQueryFallsBackToGroupMembership(t *testing.T) {
	query, args := TotalsQuery(TotalsParams{
		Side:       enums.PartySideSelling,
		From:       date(2026, 1, 1),
		ItemGroups: []string{"Snacks"},
		PerParty:   true,
	})

	assertContains(t, query, "inv.posting_date >= ?")
	assertContains(t, query, "EXISTS (SELECT 1 FROM items gi WHERE gi.code = ii.item_code AND gi.item_group IN ?)")
	assertContains(t, query, "NULL AS item_key")
	assertContains(t, query, "GROUP BY inv.customer")
	if strings.Contains(query, "JOIN items i ") {
		t.Fatalf("group membership fallback should not join items: %s", query)
	}
	assertArgs(t, args, []any{"sales", 1, *date(2026, 1, 1), []string{"Snacks"}})
}

func TestTotalsQueryWithoutFilters(t *testing.T) {
	query, args := TotalsQuery(TotalsParams{Side: enums.PartySideSelling, PerParty: true})

	assertContains(t, query, "WHERE inv.kind = ? AND inv.docstatus = ? GROUP BY inv.customer")
	assertArgs(t, args, []any{"sales", 1})
}

func assertQuery(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Fatalf("unexpected query\n got: %s\nwant: %s", got, want)
	}
}

func assertArgs(t *testing.T, got, want []any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args\n got: %#v\nwant: %#v", got, want)
	}
}

func assertContains(t *testing.T, query, fragment string) {
	t.Helper()
	if !strings.Contains(query, fragment) {
		t.Fatalf("expected query to contain %q: %s", fragment, query)
	}
}
