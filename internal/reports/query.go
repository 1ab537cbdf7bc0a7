package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// TotalsParams describes one aggregate over submitted invoices.
type TotalsParams struct {
	Side enums.PartySide
	From *time.Time
	To   *time.Time
	// Parties restricts the party column when non-empty.
	Parties []string
	// ByGroup groups by the item's group instead of its code.
	ByGroup bool
	// PerParty collapses the item axis so each party yields one row.
	PerParty   bool
	ItemCodes  []string
	ItemGroups []string
}

// total is one aggregated (party, key) pair.
type total struct {
	Party   string          `gorm:"column:party"`
	ItemKey *string         `gorm:"column:item_key"`
	Amount  decimal.Decimal `gorm:"column:amount"`
	Qty     decimal.Decimal `gorm:"column:qty"`
}

// TotalsQuery builds the aggregate of net amount and quantity per party and item
// key over submitted invoices of the side's kind. Slice arguments are bound to
// "IN ?" and expanded by gorm.
func TotalsQuery(p TotalsParams) (string, []any) {
	partyCol := "inv.customer"
	if p.Side == enums.PartySideBuying {
		partyCol = "inv.supplier"
	}
	keyCol := "ii.item_code"
	if p.ByGroup {
		keyCol = "i.item_group"
	}
	joinItems := p.ByGroup && (!p.PerParty || len(p.ItemGroups) > 0)

	var where []string
	var args []any
	where = append(where, "inv.kind = ?", "inv.docstatus = ?")
	args = append(args, p.Side.InvoiceKind().String(), int(enums.DocStatusSubmitted))

	switch {
	case p.From != nil && p.To != nil:
		where = append(where, "inv.posting_date BETWEEN ? AND ?")
		args = append(args, *p.From, *p.To)
	case p.From != nil:
		where = append(where, "inv.posting_date >= ?")
		args = append(args, *p.From)
	case p.To != nil:
		where = append(where, "inv.posting_date <= ?")
		args = append(args, *p.To)
	}

	if len(p.Parties) > 0 {
		where = append(where, partyCol+" IN ?")
		args = append(args, p.Parties)
	}

	switch {
	case p.ByGroup && len(p.ItemGroups) > 0:
		where = append(where, "i.item_group IN ?")
		args = append(args, p.ItemGroups)
	case len(p.ItemCodes) > 0:
		where = append(where, "ii.item_code IN ?")
		args = append(args, p.ItemCodes)
	case len(p.ItemGroups) > 0:
		where = append(where, "EXISTS (SELECT 1 FROM items gi WHERE gi.code = ii.item_code AND gi.item_group IN ?)")
		args = append(args, p.ItemGroups)
	}

	keySelect := keyCol
	groupBy := partyCol + ", " + keyCol
	if p.PerParty {
		keySelect = "NULL"
		groupBy = partyCol
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(partyCol)
	b.WriteString(" AS party, ")
	b.WriteString(keySelect)
	b.WriteString(" AS item_key, ")
	b.WriteString("SUM(COALESCE(ii.net_amount, ii.base_amount, ii.amount, 0)) AS amount, ")
	b.WriteString("SUM(COALESCE(ii.qty, 0)) AS qty ")
	b.WriteString("FROM invoices inv JOIN invoice_items ii ON ii.invoice_id = inv.id ")
	if joinItems {
		b.WriteString("JOIN items i ON i.code = ii.item_code ")
	}
	b.WriteString("WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	b.WriteString(" GROUP BY ")
	b.WriteString(groupBy)
	return b.String(), args
}
