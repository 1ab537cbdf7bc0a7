package promotions

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
)

var hundred = decimal.NewFromInt(100)

// Invoice is the engine's view of a transaction document.
type Invoice struct {
	Kind          enums.InvoiceKind
	Customer      string
	CustomerGroup string
	Territory     string
	Supplier      string
	SupplierGroup string
	Items         []models.InvoiceItem
}

// ViewOf builds the engine view of a persisted invoice.
func ViewOf(inv *models.Invoice) Invoice {
	return Invoice{
		Kind:          inv.Kind,
		Customer:      deref(inv.Customer),
		CustomerGroup: deref(inv.CustomerGroup),
		Territory:     deref(inv.Territory),
		Supplier:      deref(inv.Supplier),
		SupplierGroup: deref(inv.SupplierGroup),
		Items:         inv.Items,
	}
}

// Candidate is an active scheme together with its resolved item scope.
type Candidate struct {
	Scheme models.PromotionalScheme
	Items  scope.ItemScope
}

// Outcome records what happened to one candidate.
type Outcome struct {
	SchemeName string
	Policy     enums.PromoValidation
	Applied    bool
	SkipReason string
	FreeLines  int
}

// Result is the output of Transform.
type Result struct {
	Items    []models.InvoiceItem
	Notices  []notifications.Notice
	Outcomes []Outcome
}

// Transform evaluates candidates in order against inv and returns the resulting
// line items. Original lines may be re-priced; free-goods lines are appended.
// Later candidates see the lines produced by earlier ones. inv is not modified.
func Transform(inv Invoice, candidates []Candidate) Result {
	lines := make([]models.InvoiceItem, len(inv.Items))
	copy(lines, inv.Items)
	for i := range lines {
		lines[i].PromotionalSchemeApplied = copyStr(lines[i].PromotionalSchemeApplied)
		lines[i].ItemName = copyStr(lines[i].ItemName)
	}

	res := Result{}
	for _, c := range candidates {
		app := &application{scheme: c.Scheme, lines: lines}
		outcome := app.run(inv, c.Items)
		lines = app.lines
		res.Notices = append(res.Notices, app.notices...)
		res.Outcomes = append(res.Outcomes, outcome)
	}
	res.Items = lines
	return res
}

type application struct {
	scheme    models.PromotionalScheme
	lines     []models.InvoiceItem
	notices   []notifications.Notice
	freeLines int
}

func (a *application) run(inv Invoice, items scope.ItemScope) Outcome {
	outcome := Outcome{SchemeName: a.scheme.Name, Policy: a.scheme.ValidationType}

	if !PartyMatches(inv, scope.RawPartyScope(a.scheme)) {
		outcome.SkipReason = metrics.SkipParty
		return outcome
	}

	matched := a.matchedLines(items)
	if len(matched) == 0 {
		outcome.SkipReason = metrics.SkipNoItems
		return outcome
	}

	var applied bool
	switch a.scheme.ValidationType {
	case enums.PromoValidationMinimumAmount:
		applied = a.applyMinimumAmount(matched)
	case enums.PromoValidationMinimumQuantity:
		applied = a.applyQuantitySlabs(matched)
	case enums.PromoValidationMinimumQuantityAndAmount:
		applied = a.applyAmountOffSlabs(matched)
	default:
		outcome.SkipReason = metrics.SkipUnknownPolicy
		return outcome
	}

	outcome.Applied = applied
	outcome.FreeLines = a.freeLines
	if !applied {
		outcome.SkipReason = metrics.SkipThreshold
	}
	return outcome
}

// matchedLines returns the indexes of in-scope lines, fixed for the rest of the
// scheme's evaluation.
func (a *application) matchedLines(items scope.ItemScope) []int {
	var matched []int
	for i, line := range a.lines {
		if items.Matches(line.ItemCode) {
			matched = append(matched, i)
		}
	}
	return matched
}

func (a *application) sumNet(matched []int) decimal.Decimal {
	total := decimal.Zero
	for _, i := range matched {
		total = total.Add(a.lines[i].NetAmount)
	}
	return total
}

func (a *application) sumQty(matched []int) decimal.Decimal {
	total := decimal.Zero
	for _, i := range matched {
		total = total.Add(a.lines[i].Qty)
	}
	return total
}

func (a *application) applyMinimumAmount(matched []int) bool {
	if a.sumNet(matched).LessThan(a.scheme.MinimumAmount) {
		return false
	}
	pct := a.scheme.DiscountPercentage
	if !pct.IsPositive() {
		return false
	}
	for _, i := range matched {
		line := &a.lines[i]
		rate := line.Rate.Sub(line.Rate.Mul(pct).Div(hundred))
		a.reprice(line, rate)
		line.DiscountPercentage = pct
	}
	a.notify(enums.NoticeKindDiscount, fmt.Sprintf("Promotional Scheme '%s' applied: %s%% discount.", a.scheme.Name, pct.String()))
	return true
}

func (a *application) applyQuantitySlabs(matched []int) bool {
	totalQty := a.sumQty(matched)
	applied := false
	for _, slab := range a.scheme.QuantitySlabs {
		if totalQty.LessThan(slab.MinimumQuantity) {
			continue
		}
		applied = true
		if product := deref(slab.FreeProduct); product != "" {
			a.appendFreeLine(product, nil, slab.FreeQuantity)
			a.notify(enums.NoticeKindFreeProduct, fmt.Sprintf("Free Product '%s' Qty %s added for scheme '%s'.", product, slab.FreeQuantity.String(), a.scheme.Name))
			continue
		}
		a.mirrorFreeLines(matched, slab.FreeQuantity)
	}
	return applied
}

func (a *application) applyAmountOffSlabs(matched []int) bool {
	totalQty := a.sumQty(matched)
	applied := false
	count := decimal.NewFromInt(int64(len(matched)))
	for _, slab := range a.scheme.AmountOffSlabs {
		if totalQty.LessThan(slab.MinQty) || !slab.AmountOff.IsPositive() {
			continue
		}
		applied = true
		perItem := slab.AmountOff.Div(count)
		for _, i := range matched {
			line := &a.lines[i]
			a.reprice(line, line.Rate.Sub(perItem))
		}
		if slab.FreeQty.IsPositive() {
			a.mirrorFreeLines(matched, slab.FreeQty)
		}
		a.notify(enums.NoticeKindAmountOff, fmt.Sprintf("Promotional Scheme '%s' applied: Amount Off %s.", a.scheme.Name, slab.AmountOff.String()))
	}
	return applied
}

// reprice sets a new rate, recomputes amount as qty × rate and tags the line.
func (a *application) reprice(line *models.InvoiceItem, rate decimal.Decimal) {
	line.Rate = rate
	line.Amount = line.Qty.Mul(rate)
	line.BaseRate = line.Rate
	line.BaseAmount = line.Amount
	name := a.scheme.Name
	line.PromotionalSchemeApplied = &name
}

func (a *application) mirrorFreeLines(matched []int, qty decimal.Decimal) {
	for _, i := range matched {
		src := a.lines[i]
		a.appendFreeLine(src.ItemCode, copyStr(src.ItemName), qty)
	}
	a.notify(enums.NoticeKindFreeQuantity, fmt.Sprintf("Free Quantity (%s) added for scheme '%s'.", qty.String(), a.scheme.Name))
}

func (a *application) appendFreeLine(itemCode string, itemName *string, qty decimal.Decimal) {
	name := a.scheme.Name
	a.lines = append(a.lines, models.InvoiceItem{
		Idx:                      len(a.lines) + 1,
		ItemCode:                 itemCode,
		ItemName:                 itemName,
		Qty:                      qty,
		Rate:                     decimal.Zero,
		Amount:                   decimal.Zero,
		BaseRate:                 decimal.Zero,
		BaseAmount:               decimal.Zero,
		NetAmount:                decimal.Zero,
		DiscountPercentage:       decimal.Zero,
		IsFreeItem:               true,
		PromotionalSchemeApplied: &name,
	})
	a.freeLines++
}

func (a *application) notify(kind enums.NoticeKind, message string) {
	a.notices = append(a.notices, notifications.Notice{
		SchemeName: a.scheme.Name,
		Kind:       kind,
		Message:    message,
	})
}

// PartyMatches reports whether the invoice party satisfies every configured party
// dimension. Schemes without any party restriction match every invoice. Sales
// invoices check customers, customer groups and territories; purchase invoices
// check suppliers and supplier groups.
func PartyMatches(inv Invoice, parties scope.PartySets) bool {
	if parties.Empty() {
		return true
	}
	switch inv.Kind {
	case enums.InvoiceKindSales:
		return dimensionMatches(parties.Customers, inv.Customer) &&
			dimensionMatches(parties.CustomerGroups, inv.CustomerGroup) &&
			dimensionMatches(parties.Territories, inv.Territory)
	case enums.InvoiceKindPurchase:
		return dimensionMatches(parties.Suppliers, inv.Supplier) &&
			dimensionMatches(parties.SupplierGroups, inv.SupplierGroup)
	default:
		return true
	}
}

func dimensionMatches(configured scope.Set, value string) bool {
	if configured.Empty() {
		return true
	}
	return value != "" && configured.Has(value)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func copyStr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
