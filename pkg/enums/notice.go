package enums

// NoticeKind classifies user-facing messages emitted while applying schemes.
type NoticeKind string

const (
	NoticeKindDiscount     NoticeKind = "discount"
	NoticeKindFreeProduct  NoticeKind = "free_product"
	NoticeKindFreeQuantity NoticeKind = "free_quantity"
	NoticeKindAmountOff    NoticeKind = "amount_off"
)

// String implements fmt.Stringer.
func (n NoticeKind) String() string {
	return string(n)
}
