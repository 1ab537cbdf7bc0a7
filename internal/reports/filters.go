package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filters narrows the report. Scheme name and apply-on also restrict which
// schemes are evaluated; the dates replace each scheme's own validity window when
// summing historical invoices.
type Filters struct {
	SchemeName       string
	PartyType        string
	PartyName        string
	ApplyOn          string
	ItemOrGroup      string
	FromDate         *time.Time
	ToDate           *time.Time
	MinInvoiceAmount *decimal.Decimal
	MaxInvoiceAmount *decimal.Decimal
	MinInvoiceQty    *decimal.Decimal
	MaxInvoiceQty    *decimal.Decimal
	DiscountMin      *decimal.Decimal
	DiscountMax      *decimal.Decimal
	ShowOnlyEligible bool
}
