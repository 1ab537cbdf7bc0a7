package schemes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// Repository persists promotional schemes together with their child rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, scheme *models.PromotionalScheme) error
	Update(ctx context.Context, scheme *models.PromotionalScheme) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionalScheme, error)
	FindByName(ctx context.Context, name string) (*models.PromotionalScheme, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params listParams) ([]models.PromotionalScheme, *pagination.Cursor, error)
	ActiveIDs(ctx context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error)
	Overlapping(ctx context.Context, from, to time.Time, limit int) ([]models.PromotionalScheme, error)
	ListForReport(ctx context.Context, filter ReportFilter) ([]models.PromotionalScheme, error)
}

type listParams struct {
	PartySide *enums.PartySide
	Limit     int
	Cursor    *pagination.Cursor
}

// ReportFilter narrows the scheme list fed to the eligibility report.
type ReportFilter struct {
	Name    string
	ApplyOn *enums.ApplyOn
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a scheme repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// Create inserts the scheme and its child rows.
func (r *repositoryImpl) Create(ctx context.Context, scheme *models.PromotionalScheme) error {
	return r.db.WithContext(ctx).Create(scheme).Error
}

// Update saves the header and replaces every child collection.
func (r *repositoryImpl) Update(ctx context.Context, scheme *models.PromotionalScheme) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit("ScopeRows", "QuantitySlabs", "AmountOffSlabs", "CreatedAt").Save(scheme).Error; err != nil {
		return err
	}
	if err := r.deleteChildren(tx, scheme.ID); err != nil {
		return err
	}
	for i := range scheme.ScopeRows {
		scheme.ScopeRows[i].ID = uuid.Nil
		scheme.ScopeRows[i].SchemeID = scheme.ID
	}
	for i := range scheme.QuantitySlabs {
		scheme.QuantitySlabs[i].ID = uuid.Nil
		scheme.QuantitySlabs[i].SchemeID = scheme.ID
	}
	for i := range scheme.AmountOffSlabs {
		scheme.AmountOffSlabs[i].ID = uuid.Nil
		scheme.AmountOffSlabs[i].SchemeID = scheme.ID
	}
	if len(scheme.ScopeRows) > 0 {
		if err := tx.Create(&scheme.ScopeRows).Error; err != nil {
			return err
		}
	}
	if len(scheme.QuantitySlabs) > 0 {
		if err := tx.Create(&scheme.QuantitySlabs).Error; err != nil {
			return err
		}
	}
	if len(scheme.AmountOffSlabs) > 0 {
		if err := tx.Create(&scheme.AmountOffSlabs).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repositoryImpl) deleteChildren(tx *gorm.DB, schemeID uuid.UUID) error {
	for _, model := range []any{&models.SchemeScopeRow{}, &models.QuantitySlab{}, &models.AmountOffSlab{}} {
		if err := tx.Where("scheme_id = ?", schemeID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads the scheme with every child collection in idx order.
func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.PromotionalScheme, error) {
	var scheme models.PromotionalScheme
	if err := r.withChildren(r.db.WithContext(ctx)).First(&scheme, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &scheme, nil
}

func (r *repositoryImpl) FindByName(ctx context.Context, name string) (*models.PromotionalScheme, error) {
	var scheme models.PromotionalScheme
	if err := r.withChildren(r.db.WithContext(ctx)).First(&scheme, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &scheme, nil
}

// Delete removes the scheme and its child rows. Missing ids report
// gorm.ErrRecordNotFound.
func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := r.deleteChildren(tx, id); err != nil {
		return err
	}
	res := tx.Delete(&models.PromotionalScheme{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List pages scheme headers newest first.
func (r *repositoryImpl) List(ctx context.Context, params listParams) ([]models.PromotionalScheme, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.PromotionalScheme{})
	if params.PartySide != nil {
		query = query.Where("party_side = ?", *params.PartySide)
	}

	var rows []models.PromotionalScheme
	err := query.Scopes(pagination.Keyset(params.Cursor, pagination.NewestFirst)).
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}
	rows, next := pagination.Page(rows, params.Limit, func(s models.PromotionalScheme) pagination.Cursor {
		return pagination.Cursor{CreatedAt: s.CreatedAt, ID: s.ID}
	})
	return rows, next, nil
}

// ActiveIDs returns the schemes of one party side whose window contains asOf.
// Schemes without both dates are never active.
func (r *repositoryImpl) ActiveIDs(ctx context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PromotionalScheme{}).
		Where("party_side = ?", side).
		Where("valid_from IS NOT NULL AND valid_to IS NOT NULL").
		Where("valid_from <= ? AND valid_to >= ?", asOf, asOf).
		Order("created_at ASC, id ASC").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Overlapping returns schemes whose window intersects [from, to].
func (r *repositoryImpl) Overlapping(ctx context.Context, from, to time.Time, limit int) ([]models.PromotionalScheme, error) {
	var rows []models.PromotionalScheme
	err := r.db.WithContext(ctx).
		Where("valid_from IS NOT NULL AND valid_to IS NOT NULL").
		Where("valid_from <= ? AND valid_to >= ?", to, from).
		Order("valid_from ASC, name ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForReport loads full schemes newest first.
func (r *repositoryImpl) ListForReport(ctx context.Context, filter ReportFilter) ([]models.PromotionalScheme, error) {
	query := r.withChildren(r.db.WithContext(ctx))
	if filter.Name != "" {
		query = query.Where("(name = ? OR title = ?)", filter.Name, filter.Name)
	}
	if filter.ApplyOn != nil {
		query = query.Where("apply_on = ?", *filter.ApplyOn)
	}
	var rows []models.PromotionalScheme
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) withChildren(query *gorm.DB) *gorm.DB {
	return query.
		Preload("ScopeRows", func(db *gorm.DB) *gorm.DB { return db.Order("collection ASC, idx ASC") }).
		Preload("QuantitySlabs", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") }).
		Preload("AmountOffSlabs", func(db *gorm.DB) *gorm.DB { return db.Order("idx ASC") })
}
