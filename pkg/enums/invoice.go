package enums

import (
	"fmt"
	"strings"
)

// InvoiceKind identifies the transaction document type.
type InvoiceKind string

const (
	InvoiceKindSales    InvoiceKind = "sales"
	InvoiceKindPurchase InvoiceKind = "purchase"
)

var validInvoiceKinds = []InvoiceKind{
	InvoiceKindSales,
	InvoiceKindPurchase,
}

// String implements fmt.Stringer.
func (k InvoiceKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is supported.
func (k InvoiceKind) IsValid() bool {
	for _, candidate := range validInvoiceKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// PartySide maps sales invoices to selling and purchase invoices to buying.
func (k InvoiceKind) PartySide() (PartySide, bool) {
	switch k {
	case InvoiceKindSales:
		return PartySideSelling, true
	case InvoiceKindPurchase:
		return PartySideBuying, true
	default:
		return "", false
	}
}

// ParseInvoiceKind converts raw input into an InvoiceKind.
func ParseInvoiceKind(value string) (InvoiceKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validInvoiceKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice kind %q", value)
}

// DocStatus is the lifecycle state of a transaction document.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// String implements fmt.Stringer.
func (d DocStatus) String() string {
	switch d {
	case DocStatusDraft:
		return "draft"
	case DocStatusSubmitted:
		return "submitted"
	case DocStatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("docstatus(%d)", int(d))
	}
}

// IsValid reports whether the status is one of the three lifecycle states.
func (d DocStatus) IsValid() bool {
	return d >= DocStatusDraft && d <= DocStatusCancelled
}
