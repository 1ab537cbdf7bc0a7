package enums

import (
	"fmt"
	"strings"
)

// PromoValidation selects the threshold policy of a scheme.
type PromoValidation string

const (
	PromoValidationMinimumAmount            PromoValidation = "minimum_amount"
	PromoValidationMinimumQuantity          PromoValidation = "minimum_quantity"
	PromoValidationMinimumQuantityAndAmount PromoValidation = "minimum_quantity_and_amount"
)

var validPromoValidations = []PromoValidation{
	PromoValidationMinimumAmount,
	PromoValidationMinimumQuantity,
	PromoValidationMinimumQuantityAndAmount,
}

// String implements fmt.Stringer.
func (p PromoValidation) String() string {
	return string(p)
}

// IsValid reports whether the value is a known policy.
func (p PromoValidation) IsValid() bool {
	for _, candidate := range validPromoValidations {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePromoValidation converts raw input into a PromoValidation.
func ParsePromoValidation(value string) (PromoValidation, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPromoValidations {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid validation type %q", value)
}
