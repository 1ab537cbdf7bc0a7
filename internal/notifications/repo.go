package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// Repository exposes persistence helpers for scheme notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.SchemeNotification) error
	ListForInvoice(ctx context.Context, params listParams) ([]models.SchemeNotification, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listParams struct {
	InvoiceID uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.SchemeNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListForInvoice pages oldest first so messages read in the order they were emitted.
func (r *repositoryImpl) ListForInvoice(ctx context.Context, params listParams) ([]models.SchemeNotification, *pagination.Cursor, error) {
	var rows []models.SchemeNotification
	err := r.db.WithContext(ctx).
		Model(&models.SchemeNotification{}).
		Where("invoice_id = ?", params.InvoiceID).
		Scopes(pagination.Keyset(params.Cursor, pagination.OldestFirst)).
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Page(rows, params.Limit, func(n models.SchemeNotification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return rows, next, nil
}
