package schemes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// SchemeInput is the full editable state of a scheme. Update replaces every
// field and child collection.
type SchemeInput struct {
	Name               string                `validate:"required,max=140"`
	Title              *string               `validate:"omitempty,max=140"`
	PartySide          enums.PartySide       `validate:"required"`
	ApplyOn            *enums.ApplyOn        `validate:"omitempty"`
	ValidFrom          *time.Time            `validate:"omitempty"`
	ValidTo            *time.Time            `validate:"omitempty"`
	ValidationType     enums.PromoValidation `validate:"required"`
	MinimumAmount      decimal.Decimal
	DiscountPercentage decimal.Decimal
	MinimumQuantity    decimal.Decimal
	FreeQuantity       decimal.Decimal
	Scope              ScopeInput
	QuantitySlabs      []QuantitySlabInput  `validate:"dive"`
	AmountOffSlabs     []AmountOffSlabInput `validate:"dive"`
}

// ScopeInput carries the seven scope collections. Each accepts bare strings or
// structured rows.
type ScopeInput struct {
	Customers      scope.Entries `json:"customer,omitempty"`
	CustomerGroups scope.Entries `json:"customer_group,omitempty"`
	Territories    scope.Entries `json:"territory,omitempty"`
	Suppliers      scope.Entries `json:"supplier,omitempty"`
	SupplierGroups scope.Entries `json:"supplier_group,omitempty"`
	ItemCodes      scope.Entries `json:"item_code,omitempty"`
	ItemGroups     scope.Entries `json:"item_group,omitempty"`
}

type QuantitySlabInput struct {
	MinimumQuantity decimal.Decimal
	FreeQuantity    decimal.Decimal
	FreeProduct     *string `validate:"omitempty,max=140"`
}

type AmountOffSlabInput struct {
	MinQty    decimal.Decimal
	FreeQty   decimal.Decimal
	AmountOff decimal.Decimal
}

// ListParams configures scheme pagination.
type ListParams struct {
	PartySide *enums.PartySide
	Limit     int
	Cursor    string
}

// ListResult wraps a page of scheme headers.
type ListResult struct {
	Items  []SchemeSummary `json:"items"`
	Cursor string          `json:"cursor"`
}

// SchemeSummary is the header of a scheme without child rows.
type SchemeSummary struct {
	ID             uuid.UUID             `json:"id"`
	Name           string                `json:"name"`
	Title          *string               `json:"title,omitempty"`
	PartySide      enums.PartySide       `json:"party_side"`
	ApplyOn        *enums.ApplyOn        `json:"apply_on,omitempty"`
	ValidFrom      *string               `json:"valid_from,omitempty"`
	ValidTo        *string               `json:"valid_to,omitempty"`
	ValidationType enums.PromoValidation `json:"validation_type"`
	CreatedAt      time.Time             `json:"created_at"`
}

// SchemeDTO is the full scheme as exposed by the API.
type SchemeDTO struct {
	SchemeSummary
	MinimumAmount      decimal.Decimal                         `json:"minimum_amount"`
	DiscountPercentage decimal.Decimal                         `json:"discount_percentage"`
	MinimumQuantity    decimal.Decimal                         `json:"minimum_quantity"`
	FreeQuantity       decimal.Decimal                         `json:"free_quantity"`
	Scope              map[enums.ScopeCollection]scope.Entries `json:"scope"`
	QuantitySlabs      []models.QuantitySlab                   `json:"quantity_slabs"`
	AmountOffSlabs     []models.AmountOffSlab                  `json:"amount_off_slabs"`
	UpdatedAt          time.Time                               `json:"updated_at"`
}

func summaryFromModel(m models.PromotionalScheme) SchemeSummary {
	return SchemeSummary{
		ID:             m.ID,
		Name:           m.Name,
		Title:          m.Title,
		PartySide:      m.PartySide,
		ApplyOn:        m.ApplyOn,
		ValidFrom:      formatDate(m.ValidFrom),
		ValidTo:        formatDate(m.ValidTo),
		ValidationType: m.ValidationType,
		CreatedAt:      m.CreatedAt,
	}
}

// FromModel renders a loaded scheme.
func FromModel(m models.PromotionalScheme) SchemeDTO {
	quantity := m.QuantitySlabs
	if quantity == nil {
		quantity = []models.QuantitySlab{}
	}
	amountOff := m.AmountOffSlabs
	if amountOff == nil {
		amountOff = []models.AmountOffSlab{}
	}
	return SchemeDTO{
		SchemeSummary:      summaryFromModel(m),
		MinimumAmount:      m.MinimumAmount,
		DiscountPercentage: m.DiscountPercentage,
		MinimumQuantity:    m.MinimumQuantity,
		FreeQuantity:       m.FreeQuantity,
		Scope:              scope.FromRows(m.ScopeRows),
		QuantitySlabs:      quantity,
		AmountOffSlabs:     amountOff,
		UpdatedAt:          m.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

// rows normalizes the scope collections into persisted rows.
func (s ScopeInput) rows() []models.SchemeScopeRow {
	var rows []models.SchemeScopeRow
	for _, part := range []struct {
		entries    scope.Entries
		collection enums.ScopeCollection
	}{
		{s.Customers, enums.ScopeCollectionCustomer},
		{s.CustomerGroups, enums.ScopeCollectionCustomerGroup},
		{s.Territories, enums.ScopeCollectionTerritory},
		{s.Suppliers, enums.ScopeCollectionSupplier},
		{s.SupplierGroups, enums.ScopeCollectionSupplierGroup},
		{s.ItemCodes, enums.ScopeCollectionItemCode},
		{s.ItemGroups, enums.ScopeCollectionItemGroup},
	} {
		rows = append(rows, part.entries.Rows(part.collection)...)
	}
	return rows
}

// toModel builds the persisted scheme. Dates are truncated to calendar days.
func (in SchemeInput) toModel() *models.PromotionalScheme {
	scheme := &models.PromotionalScheme{
		Name:               in.Name,
		Title:              in.Title,
		PartySide:          in.PartySide,
		ApplyOn:            in.ApplyOn,
		ValidFrom:          dateOf(in.ValidFrom),
		ValidTo:            dateOf(in.ValidTo),
		ValidationType:     in.ValidationType,
		MinimumAmount:      in.MinimumAmount,
		DiscountPercentage: in.DiscountPercentage,
		MinimumQuantity:    in.MinimumQuantity,
		FreeQuantity:       in.FreeQuantity,
		ScopeRows:          in.Scope.rows(),
	}
	for i, slab := range in.QuantitySlabs {
		scheme.QuantitySlabs = append(scheme.QuantitySlabs, models.QuantitySlab{
			Idx:             i + 1,
			MinimumQuantity: slab.MinimumQuantity,
			FreeQuantity:    slab.FreeQuantity,
			FreeProduct:     slab.FreeProduct,
		})
	}
	for i, slab := range in.AmountOffSlabs {
		scheme.AmountOffSlabs = append(scheme.AmountOffSlabs, models.AmountOffSlab{
			Idx:       i + 1,
			MinQty:    slab.MinQty,
			FreeQty:   slab.FreeQty,
			AmountOff: slab.AmountOff,
		})
	}
	return scheme
}

func dateOf(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}
