package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// PromotionalScheme is a configured discount or free-goods rule.
type PromotionalScheme struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name               string                `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Title              *string               `gorm:"column:title" json:"title,omitempty"`
	PartySide          enums.PartySide       `gorm:"column:party_side;not null" json:"party_side"`
	ApplyOn            *enums.ApplyOn        `gorm:"column:apply_on" json:"apply_on,omitempty"`
	ValidFrom          *time.Time            `gorm:"column:valid_from;type:date" json:"valid_from,omitempty"`
	ValidTo            *time.Time            `gorm:"column:valid_to;type:date" json:"valid_to,omitempty"`
	ValidationType     enums.PromoValidation `gorm:"column:validation_type;not null" json:"validation_type"`
	MinimumAmount      decimal.Decimal       `gorm:"column:minimum_amount;type:numeric(18,6);not null;default:0" json:"minimum_amount"`
	DiscountPercentage decimal.Decimal       `gorm:"column:discount_percentage;type:numeric(9,6);not null;default:0" json:"discount_percentage"`
	MinimumQuantity    decimal.Decimal       `gorm:"column:minimum_quantity;type:numeric(18,6);not null;default:0" json:"minimum_quantity"`
	FreeQuantity       decimal.Decimal       `gorm:"column:free_quantity;type:numeric(18,6);not null;default:0" json:"free_quantity"`
	ScopeRows          []SchemeScopeRow      `gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE" json:"scope_rows"`
	QuantitySlabs      []QuantitySlab        `gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE" json:"quantity_slabs"`
	AmountOffSlabs     []AmountOffSlab       `gorm:"foreignKey:SchemeID;constraint:OnDelete:CASCADE" json:"amount_off_slabs"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PromotionalScheme) TableName() string { return "promotional_schemes" }

func (s *PromotionalScheme) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DisplayName is the title when present, else the unique name.
func (s PromotionalScheme) DisplayName() string {
	if s.Title != nil && *s.Title != "" {
		return *s.Title
	}
	return s.Name
}

// RowsFor returns the scope rows belonging to one collection, in idx order as loaded.
func (s PromotionalScheme) RowsFor(collection enums.ScopeCollection) []SchemeScopeRow {
	var out []SchemeScopeRow
	for _, row := range s.ScopeRows {
		if row.Collection == collection {
			out = append(out, row)
		}
	}
	return out
}

// SchemeScopeRow is one entry of a scope collection. Only the columns relevant to
// the collection are populated; the rest stay nil.
type SchemeScopeRow struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	SchemeID      uuid.UUID             `gorm:"column:scheme_id;type:uuid;not null;index" json:"-"`
	Collection    enums.ScopeCollection `gorm:"column:collection;not null" json:"collection"`
	Idx           int                   `gorm:"column:idx;not null;default:0" json:"idx"`
	ItemCode      *string               `gorm:"column:item_code" json:"item_code,omitempty"`
	ItemGroup     *string               `gorm:"column:item_group" json:"item_group,omitempty"`
	Customer      *string               `gorm:"column:customer" json:"customer,omitempty"`
	CustomerGroup *string               `gorm:"column:customer_group" json:"customer_group,omitempty"`
	Territory     *string               `gorm:"column:territory" json:"territory,omitempty"`
	Supplier      *string               `gorm:"column:supplier" json:"supplier,omitempty"`
	SupplierGroup *string               `gorm:"column:supplier_group" json:"supplier_group,omitempty"`
	Item          *string               `gorm:"column:item" json:"item,omitempty"`
	GroupName     *string               `gorm:"column:group_name" json:"group,omitempty"`
	Value         *string               `gorm:"column:value" json:"value,omitempty"`
}

func (SchemeScopeRow) TableName() string { return "scheme_scope_rows" }

func (r *SchemeScopeRow) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// QuantitySlab is one threshold row of the minimum-quantity policy.
type QuantitySlab struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	SchemeID        uuid.UUID       `gorm:"column:scheme_id;type:uuid;not null;index" json:"-"`
	Idx             int             `gorm:"column:idx;not null;default:0" json:"idx"`
	MinimumQuantity decimal.Decimal `gorm:"column:minimum_quantity;type:numeric(18,6);not null" json:"minimum_quantity"`
	FreeQuantity    decimal.Decimal `gorm:"column:free_quantity;type:numeric(18,6);not null" json:"free_quantity"`
	FreeProduct     *string         `gorm:"column:free_product" json:"free_product,omitempty"`
}

func (QuantitySlab) TableName() string { return "scheme_quantity_slabs" }

func (q *QuantitySlab) BeforeCreate(*gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// AmountOffSlab is one threshold row of the minimum-quantity-and-amount policy.
type AmountOffSlab struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"-"`
	SchemeID  uuid.UUID       `gorm:"column:scheme_id;type:uuid;not null;index" json:"-"`
	Idx       int             `gorm:"column:idx;not null;default:0" json:"idx"`
	MinQty    decimal.Decimal `gorm:"column:min_qty;type:numeric(18,6);not null" json:"min_qty"`
	FreeQty   decimal.Decimal `gorm:"column:free_qty;type:numeric(18,6);not null" json:"free_qty"`
	AmountOff decimal.Decimal `gorm:"column:amount_off;type:numeric(18,6);not null" json:"amount_off"`
}

func (AmountOffSlab) TableName() string { return "scheme_amount_off_slabs" }

func (a *AmountOffSlab) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
