package controllers

import (
	"net/http"

	"github.com/angelmondragon/promoschemes/api/responses"
	"github.com/angelmondragon/promoschemes/api/validators"
	"github.com/angelmondragon/promoschemes/internal/reports"
	"github.com/angelmondragon/promoschemes/pkg/logger"
)

const filterMaxLen = 140

// PromotionalSchemeReport runs the eligibility report. show_only_eligible
// defaults to true.
func PromotionalSchemeReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseReportFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		columns, rows, err := svc.Execute(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"columns": columns, "rows": rows})
	}
}

func parseReportFilters(r *http.Request) (reports.Filters, error) {
	f := reports.Filters{
		SchemeName:  validators.QueryString(r, "scheme_name", filterMaxLen),
		PartyType:   validators.QueryString(r, "party_type", filterMaxLen),
		PartyName:   validators.QueryString(r, "party_name", filterMaxLen),
		ApplyOn:     validators.QueryString(r, "apply_on", filterMaxLen),
		ItemOrGroup: validators.QueryString(r, "item_or_group", filterMaxLen),
	}
	var err error
	if f.FromDate, err = validators.ParseQueryDate(r, "from_date"); err != nil {
		return f, err
	}
	if f.ToDate, err = validators.ParseQueryDate(r, "to_date"); err != nil {
		return f, err
	}
	if f.MinInvoiceAmount, err = validators.ParseQueryDecimal(r, "min_invoice_amount"); err != nil {
		return f, err
	}
	if f.MaxInvoiceAmount, err = validators.ParseQueryDecimal(r, "max_invoice_amount"); err != nil {
		return f, err
	}
	if f.MinInvoiceQty, err = validators.ParseQueryDecimal(r, "min_invoice_qty"); err != nil {
		return f, err
	}
	if f.MaxInvoiceQty, err = validators.ParseQueryDecimal(r, "max_invoice_qty"); err != nil {
		return f, err
	}
	if f.DiscountMin, err = validators.ParseQueryDecimal(r, "discount_min"); err != nil {
		return f, err
	}
	if f.DiscountMax, err = validators.ParseQueryDecimal(r, "discount_max"); err != nil {
		return f, err
	}
	if f.ShowOnlyEligible, err = validators.ParseQueryBool(r, "show_only_eligible", true); err != nil {
		return f, err
	}
	return f, nil
}
