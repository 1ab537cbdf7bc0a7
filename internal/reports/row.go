package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

const (
	allParties = "All"
	noValue    = "-"
)

// Row is one (scheme, party, item or group) line of the report.
type Row struct {
	SchemeName         string                  `json:"scheme_name"`
	PartyType          enums.PartyType         `json:"party_type"`
	PartyName          string                  `json:"party_name"`
	ApplyOn            string                  `json:"apply_on"`
	ItemOrGroup        string                  `json:"item_or_group"`
	MinimumAmount      decimal.Decimal         `json:"minimum_amount"`
	MinimumQuantity    decimal.Decimal         `json:"minimum_quantity"`
	DiscountPercentage decimal.Decimal         `json:"discount_percentage"`
	FreeQuantity       decimal.Decimal         `json:"free_quantity"`
	ValidFrom          *string                 `json:"valid_from"`
	ValidTo            *string                 `json:"valid_to"`
	InvoiceAmount      decimal.Decimal         `json:"invoice_amount"`
	InvoiceQty         decimal.Decimal         `json:"invoice_qty"`
	EligibilityStatus  enums.EligibilityStatus `json:"eligibility_status"`

	// schemeName is the unique scheme name, kept so a name filter still matches
	// schemes displayed under their title.
	schemeName string
}

// Eligibility recomputes the verdict of a row from the historical totals.
// Minimum amount and minimum quantity compare the totals against the scheme's
// top-level thresholds; any other policy is eligible as soon as either total is
// positive, which is looser than the slab logic used when applying schemes.
func Eligibility(policy enums.PromoValidation, minAmount, minQty, amount, qty decimal.Decimal) enums.EligibilityStatus {
	var eligible bool
	switch policy {
	case enums.PromoValidationMinimumAmount:
		eligible = minAmount.IsPositive() && amount.GreaterThanOrEqual(minAmount)
	case enums.PromoValidationMinimumQuantity:
		eligible = minQty.IsPositive() && qty.GreaterThanOrEqual(minQty)
	default:
		eligible = amount.IsPositive() || qty.IsPositive()
	}
	if eligible {
		return enums.EligibilityEligible
	}
	return enums.EligibilityNotEligible
}

func buildRow(scheme models.PromotionalScheme, partyType enums.PartyType, party, key string, totals total) Row {
	row := Row{
		SchemeName:         scheme.DisplayName(),
		PartyType:          partyType,
		PartyName:          orDefault(party, allParties),
		ApplyOn:            noValue,
		ItemOrGroup:        orDefault(key, noValue),
		MinimumAmount:      scheme.MinimumAmount,
		MinimumQuantity:    scheme.MinimumQuantity,
		DiscountPercentage: scheme.DiscountPercentage,
		FreeQuantity:       scheme.FreeQuantity,
		ValidFrom:          formatDate(scheme.ValidFrom),
		ValidTo:            formatDate(scheme.ValidTo),
		InvoiceAmount:      totals.Amount,
		InvoiceQty:         totals.Qty,
		schemeName:         scheme.Name,
	}
	if scheme.ApplyOn != nil {
		row.ApplyOn = scheme.ApplyOn.String()
	}
	row.EligibilityStatus = Eligibility(scheme.ValidationType, scheme.MinimumAmount, scheme.MinimumQuantity, totals.Amount, totals.Qty)
	return row
}

// ApplyFilters keeps the rows matching every set filter.
func ApplyFilters(rows []Row, f Filters) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if f.matches(row) {
			out = append(out, row)
		}
	}
	return out
}

func (f Filters) matches(row Row) bool {
	if f.SchemeName != "" && row.SchemeName != f.SchemeName && row.schemeName != f.SchemeName {
		return false
	}
	if f.PartyType != "" && string(row.PartyType) != f.PartyType {
		return false
	}
	if f.PartyName != "" && row.PartyName != f.PartyName {
		return false
	}
	if f.ApplyOn != "" && row.ApplyOn != f.ApplyOn {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.ItemOrGroup)); term != "" &&
		!strings.Contains(strings.ToLower(row.ItemOrGroup), term) {
		return false
	}
	if f.FromDate != nil && row.ValidTo != nil && *row.ValidTo < f.FromDate.Format(models.DateLayout) {
		return false
	}
	if f.ToDate != nil && row.ValidFrom != nil && *row.ValidFrom > f.ToDate.Format(models.DateLayout) {
		return false
	}
	if !within(row.InvoiceAmount, f.MinInvoiceAmount, f.MaxInvoiceAmount) ||
		!within(row.InvoiceQty, f.MinInvoiceQty, f.MaxInvoiceQty) ||
		!within(row.DiscountPercentage, f.DiscountMin, f.DiscountMax) {
		return false
	}
	if f.ShowOnlyEligible && row.EligibilityStatus != enums.EligibilityEligible {
		return false
	}
	return true
}

func within(v decimal.Decimal, min, max *decimal.Decimal) bool {
	if min != nil && v.LessThan(*min) {
		return false
	}
	if max != nil && v.GreaterThan(*max) {
		return false
	}
	return true
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
