package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/enums"
)

// SchemeNotification persists a user-visible message emitted while applying a scheme.
type SchemeNotification struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InvoiceID  *uuid.UUID       `gorm:"column:invoice_id;type:uuid;index" json:"invoice_id,omitempty"`
	SchemeName string           `gorm:"column:scheme_name;not null" json:"scheme_name"`
	Kind       enums.NoticeKind `gorm:"column:kind;not null" json:"kind"`
	Message    string           `gorm:"column:message;not null" json:"message"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SchemeNotification) TableName() string { return "scheme_notifications" }

func (n *SchemeNotification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
