package models

import "time"

// Item is a catalog entry referenced by invoice lines and item scopes.
type Item struct {
	Code      string    `gorm:"column:code;primaryKey" json:"code"`
	ItemName  *string   `gorm:"column:item_name" json:"item_name,omitempty"`
	ItemGroup *string   `gorm:"column:item_group;index" json:"item_group,omitempty"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// Customer is a selling-side party.
type Customer struct {
	Name          string    `gorm:"column:name;primaryKey" json:"name"`
	CustomerGroup *string   `gorm:"column:customer_group;index" json:"customer_group,omitempty"`
	Territory     *string   `gorm:"column:territory;index" json:"territory,omitempty"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

// Supplier is a buying-side party.
type Supplier struct {
	Name          string    `gorm:"column:name;primaryKey" json:"name"`
	SupplierGroup *string   `gorm:"column:supplier_group;index" json:"supplier_group,omitempty"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }
