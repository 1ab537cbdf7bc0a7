package invoices

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// CreateInput describes a draft invoice.
type CreateInput struct {
	Name          string
	Kind          enums.InvoiceKind
	Customer      *string
	CustomerGroup *string
	Territory     *string
	Supplier      *string
	SupplierGroup *string
	PostingDate   *time.Time
	Items         []ItemInput
}

// ItemInput is one draft line. NetAmount defaults to qty × rate.
type ItemInput struct {
	ItemCode  string
	ItemName  *string
	Qty       decimal.Decimal
	Rate      decimal.Decimal
	NetAmount *decimal.Decimal
}

type ListParams struct {
	Kind      *enums.InvoiceKind
	DocStatus *enums.DocStatus
	Limit     int
	Cursor    string
}

type ListResult struct {
	Items  []models.Invoice `json:"items"`
	Cursor string           `json:"cursor"`
}

// SubmitResult is the submitted invoice plus the notices emitted while the
// promotional schemes were applied.
type SubmitResult struct {
	Invoice *models.Invoice        `json:"invoice"`
	Notices []notifications.Notice `json:"notices"`
}
