package catalog

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/promoschemes/internal/repo"
	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
)

// Repository persists the item, customer and supplier reference tables.
type Repository struct {
	repo.Base
}

var _ scope.Lookup = (*Repository)(nil)

// NewRepository builds a catalog repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// UpsertItems inserts items or refreshes name and group of existing codes.
func (r *Repository) UpsertItems(ctx context.Context, items []models.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"item_name", "item_group", "updated_at"}),
		}).
		Create(&items).
		Error
}

// UpsertCustomers inserts customers or refreshes group and territory.
func (r *Repository) UpsertCustomers(ctx context.Context, customers []models.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"customer_group", "territory", "updated_at"}),
		}).
		Create(&customers).
		Error
}

// UpsertSuppliers inserts suppliers or refreshes their group.
func (r *Repository) UpsertSuppliers(ctx context.Context, suppliers []models.Supplier) error {
	if len(suppliers) == 0 {
		return nil
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"supplier_group", "updated_at"}),
		}).
		Create(&suppliers).
		Error
}

func (r *Repository) GetItem(ctx context.Context, code string) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).First(&item, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) GetCustomer(ctx context.Context, name string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.DB(ctx).First(&customer, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) GetSupplier(ctx context.Context, name string) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.DB(ctx).First(&supplier, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

// ItemCodesInGroups returns the codes of every item in the given groups.
func (r *Repository) ItemCodesInGroups(ctx context.Context, groups []string) ([]string, error) {
	return r.PluckDistinctIn(ctx, &models.Item{}, "code", "item_group", groups)
}

// CustomersInGroups returns the customers belonging to the given groups.
func (r *Repository) CustomersInGroups(ctx context.Context, groups []string) ([]string, error) {
	return r.PluckDistinctIn(ctx, &models.Customer{}, "name", "customer_group", groups)
}

// CustomersInTerritories returns the customers located in the given territories.
func (r *Repository) CustomersInTerritories(ctx context.Context, territories []string) ([]string, error) {
	return r.PluckDistinctIn(ctx, &models.Customer{}, "name", "territory", territories)
}

// SuppliersInGroups returns the suppliers belonging to the given groups.
func (r *Repository) SuppliersInGroups(ctx context.Context, groups []string) ([]string, error) {
	return r.PluckDistinctIn(ctx, &models.Supplier{}, "name", "supplier_group", groups)
}
