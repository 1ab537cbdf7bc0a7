package invoices

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// errStatusChanged reports a conditional status update that matched no row.
var errStatusChanged = errors.New("invoice status changed concurrently")

// Repository persists invoices and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params listParams) ([]models.Invoice, *pagination.Cursor, error)
	MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkCancelled(ctx context.Context, id uuid.UUID) error
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceItem) error
	UpdateGrandTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
}

type listParams struct {
	Kind      *enums.InvoiceKind
	DocStatus *enums.DocStatus
	Limit     int
	Cursor    *pagination.Cursor
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		First(&invoice, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List pages invoice headers newest first.
func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.Invoice, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{})
	if params.Kind != nil {
		query = query.Where("kind = ?", *params.Kind)
	}
	if params.DocStatus != nil {
		query = query.Where("docstatus = ?", *params.DocStatus)
	}

	var rows []models.Invoice
	err := query.Scopes(pagination.Keyset(params.Cursor, pagination.NewestFirst)).
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Page(rows, params.Limit, func(inv models.Invoice) pagination.Cursor {
		return pagination.Cursor{CreatedAt: inv.CreatedAt, ID: inv.ID}
	})
	return rows, next, nil
}

// MarkSubmitted moves a draft to submitted. It fails with errStatusChanged when
// the invoice is no longer a draft.
func (r *repositoryImpl) MarkSubmitted(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.transition(ctx, id, enums.DocStatusDraft, map[string]any{
		"docstatus":    enums.DocStatusSubmitted,
		"submitted_at": at,
	})
}

// MarkCancelled moves a submitted invoice to cancelled.
func (r *repositoryImpl) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, enums.DocStatusSubmitted, map[string]any{
		"docstatus": enums.DocStatusCancelled,
	})
}

func (r *repositoryImpl) transition(ctx context.Context, id uuid.UUID, from enums.DocStatus, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND docstatus = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errStatusChanged
	}
	return nil
}

// ReplaceItems deletes every line of the invoice and inserts items in order.
func (r *repositoryImpl) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []models.InvoiceItem) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("invoice_id = ?", invoiceID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = uuid.Nil
		items[i].InvoiceID = invoiceID
	}
	return tx.Create(&items).Error
}

func (r *repositoryImpl) UpdateGrandTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ?", id).
		Update("grand_total", total).
		Error
}
