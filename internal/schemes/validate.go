package schemes

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
)

const (
	msgDateOrder        = "Valid From date cannot be later than Valid To date."
	msgMinimumAmount    = "Please specify both Minimum Amount and Discount Percentage."
	msgQuantitySlabs    = "Please add at least one row in Quantity Discount Slabs."
	msgQuantitySlabRow  = "Each Quantity Discount Slab row must have Minimum Quantity and Free Quantity."
	msgAmountOffSlabs   = "Please add at least one row in Free Qty with Amount Off."
	msgAmountOffSlabRow = "Each row must have Min Qty, Free Qty, and Amount Off."
	msgItemCodeMode     = "You selected 'Item Code' but added Item Group rows. Please clear them."
	msgItemGroupMode    = "You selected 'Item Group' but added Item Code rows. Please clear them."
	msgMixedItemScope   = "Item Code rows and Item Group rows cannot be combined in one scheme."
	msgDiscountRange    = "Discount Percentage cannot exceed 100."
	msgNegativeValues   = "Amounts, quantities and percentages cannot be negative."
)

var structValidator = validator.New()

// validateScheme runs every save-time rule and reports all failures at once.
func validateScheme(in SchemeInput, scheme *models.PromotionalScheme) error {
	var errs error

	if err := structValidator.Struct(in); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = multierr.Append(errs, fmt.Errorf("%s failed %q validation", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = multierr.Append(errs, err)
		}
	}

	if !scheme.PartySide.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("party_side %q must be selling or buying", scheme.PartySide))
	}
	if scheme.ApplyOn != nil && !scheme.ApplyOn.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("apply_on %q must be item_code or item_group", *scheme.ApplyOn))
	}

	if scheme.ValidFrom != nil && scheme.ValidTo != nil && scheme.ValidFrom.After(*scheme.ValidTo) {
		errs = multierr.Append(errs, errors.New(msgDateOrder))
	}

	errs = multierr.Append(errs, validatePolicy(scheme))
	errs = multierr.Append(errs, validateItemScope(scheme))

	if hasNegative(scheme) {
		errs = multierr.Append(errs, errors.New(msgNegativeValues))
	}
	if scheme.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		errs = multierr.Append(errs, errors.New(msgDiscountRange))
	}

	if errs == nil {
		return nil
	}
	return pkgerrors.Validation("invalid promotional scheme", multierr.Errors(errs))
}

func validatePolicy(scheme *models.PromotionalScheme) error {
	switch scheme.ValidationType {
	case enums.PromoValidationMinimumAmount:
		if scheme.MinimumAmount.IsZero() || scheme.DiscountPercentage.IsZero() {
			return errors.New(msgMinimumAmount)
		}
	case enums.PromoValidationMinimumQuantity:
		if len(scheme.QuantitySlabs) == 0 {
			return errors.New(msgQuantitySlabs)
		}
		for _, slab := range scheme.QuantitySlabs {
			if slab.MinimumQuantity.IsZero() || slab.FreeQuantity.IsZero() {
				return errors.New(msgQuantitySlabRow)
			}
		}
	case enums.PromoValidationMinimumQuantityAndAmount:
		if len(scheme.AmountOffSlabs) == 0 {
			return errors.New(msgAmountOffSlabs)
		}
		for _, slab := range scheme.AmountOffSlabs {
			if slab.MinQty.IsZero() || slab.FreeQty.IsZero() || slab.AmountOff.IsZero() {
				return errors.New(msgAmountOffSlabRow)
			}
		}
	default:
		return fmt.Errorf("validation_type %q is not supported", scheme.ValidationType)
	}
	return nil
}

func validateItemScope(scheme *models.PromotionalScheme) error {
	hasCodes := len(scheme.RowsFor(enums.ScopeCollectionItemCode)) > 0
	hasGroups := len(scheme.RowsFor(enums.ScopeCollectionItemGroup)) > 0

	var errs error
	if scheme.ApplyOn != nil {
		switch *scheme.ApplyOn {
		case enums.ApplyOnItemCode:
			if hasGroups {
				errs = multierr.Append(errs, errors.New(msgItemCodeMode))
			}
		case enums.ApplyOnItemGroup:
			if hasCodes {
				errs = multierr.Append(errs, errors.New(msgItemGroupMode))
			}
		}
	}
	if errs == nil && hasCodes && hasGroups {
		errs = errors.New(msgMixedItemScope)
	}
	return errs
}

func hasNegative(scheme *models.PromotionalScheme) bool {
	values := []decimal.Decimal{
		scheme.MinimumAmount,
		scheme.DiscountPercentage,
		scheme.MinimumQuantity,
		scheme.FreeQuantity,
	}
	for _, slab := range scheme.QuantitySlabs {
		values = append(values, slab.MinimumQuantity, slab.FreeQuantity)
	}
	for _, slab := range scheme.AmountOffSlabs {
		values = append(values, slab.MinQty, slab.FreeQty, slab.AmountOff)
	}
	for _, v := range values {
		if v.IsNegative() {
			return true
		}
	}
	return false
}
