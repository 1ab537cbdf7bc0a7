package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// Invoice is a sales or purchase transaction document.
type Invoice struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string            `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Kind          enums.InvoiceKind `gorm:"column:kind;not null" json:"kind"`
	Customer      *string           `gorm:"column:customer" json:"customer,omitempty"`
	CustomerGroup *string           `gorm:"column:customer_group" json:"customer_group,omitempty"`
	Territory     *string           `gorm:"column:territory" json:"territory,omitempty"`
	Supplier      *string           `gorm:"column:supplier" json:"supplier,omitempty"`
	SupplierGroup *string           `gorm:"column:supplier_group" json:"supplier_group,omitempty"`
	PostingDate   time.Time         `gorm:"column:posting_date;type:date;not null" json:"posting_date"`
	DocStatus     enums.DocStatus   `gorm:"column:docstatus;not null;default:0" json:"docstatus"`
	GrandTotal    decimal.Decimal   `gorm:"column:grand_total;type:numeric(18,6);not null;default:0" json:"grand_total"`
	SubmittedAt   *time.Time        `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	Items         []InvoiceItem     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is a line of an invoice. NetAmount is the pre-tax base net amount.
type InvoiceItem struct {
	ID                       uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceID                uuid.UUID       `gorm:"column:invoice_id;type:uuid;not null;index" json:"-"`
	Idx                      int             `gorm:"column:idx;not null" json:"idx"`
	ItemCode                 string          `gorm:"column:item_code;not null" json:"item_code"`
	ItemName                 *string         `gorm:"column:item_name" json:"item_name,omitempty"`
	Qty                      decimal.Decimal `gorm:"column:qty;type:numeric(18,6);not null" json:"qty"`
	Rate                     decimal.Decimal `gorm:"column:rate;type:numeric(18,6);not null" json:"rate"`
	Amount                   decimal.Decimal `gorm:"column:amount;type:numeric(18,6);not null" json:"amount"`
	BaseRate                 decimal.Decimal `gorm:"column:base_rate;type:numeric(18,6);not null" json:"base_rate"`
	BaseAmount               decimal.Decimal `gorm:"column:base_amount;type:numeric(18,6);not null" json:"base_amount"`
	NetAmount                decimal.Decimal `gorm:"column:net_amount;type:numeric(18,6)" json:"net_amount"`
	DiscountPercentage       decimal.Decimal `gorm:"column:discount_percentage;type:numeric(9,6);not null;default:0" json:"discount_percentage"`
	IsFreeItem               bool            `gorm:"column:is_free_item;not null;default:false" json:"is_free_item"`
	PromotionalSchemeApplied *string         `gorm:"column:promotional_scheme_applied" json:"promotional_scheme_applied,omitempty"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

func (i *InvoiceItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
