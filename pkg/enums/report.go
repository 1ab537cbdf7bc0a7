package enums

// PartyType is the display label of the party column in the scheme report.
type PartyType string

const (
	PartyTypeCustomer PartyType = "Customer"
	PartyTypeSupplier PartyType = "Supplier"
)

// String implements fmt.Stringer.
func (p PartyType) String() string {
	return string(p)
}

// EligibilityStatus is the report verdict for a (scheme, party, item) row.
type EligibilityStatus string

const (
	EligibilityEligible    EligibilityStatus = "Eligible"
	EligibilityNotEligible EligibilityStatus = "Not Eligible"
)

// String implements fmt.Stringer.
func (e EligibilityStatus) String() string {
	return string(e)
}
