package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
)

// Service maintains the reference tables used by scheme scopes and invoices.
type Service interface {
	UpsertItems(ctx context.Context, inputs []ItemInput) (int, error)
	UpsertCustomers(ctx context.Context, inputs []CustomerInput) (int, error)
	UpsertSuppliers(ctx context.Context, inputs []SupplierInput) (int, error)
	GetItem(ctx context.Context, code string) (*models.Item, error)
	GetCustomer(ctx context.Context, name string) (*models.Customer, error)
	GetSupplier(ctx context.Context, name string) (*models.Supplier, error)
}

type ItemInput struct {
	Code      string
	ItemName  *string
	ItemGroup *string
}

type CustomerInput struct {
	Name          string
	CustomerGroup *string
	Territory     *string
}

type SupplierInput struct {
	Name          string
	SupplierGroup *string
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) UpsertItems(ctx context.Context, inputs []ItemInput) (int, error) {
	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = in.Code
	}
	if err := validateKeys("code", keys); err != nil {
		return 0, err
	}
	items := make([]models.Item, len(inputs))
	for i, in := range inputs {
		items[i] = models.Item{
			Code:      strings.TrimSpace(in.Code),
			ItemName:  trimmedOrNil(in.ItemName),
			ItemGroup: trimmedOrNil(in.ItemGroup),
		}
	}
	if err := s.repo.UpsertItems(ctx, items); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert items")
	}
	return len(items), nil
}

func (s *service) UpsertCustomers(ctx context.Context, inputs []CustomerInput) (int, error) {
	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = in.Name
	}
	if err := validateKeys("name", keys); err != nil {
		return 0, err
	}
	customers := make([]models.Customer, len(inputs))
	for i, in := range inputs {
		customers[i] = models.Customer{
			Name:          strings.TrimSpace(in.Name),
			CustomerGroup: trimmedOrNil(in.CustomerGroup),
			Territory:     trimmedOrNil(in.Territory),
		}
	}
	if err := s.repo.UpsertCustomers(ctx, customers); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert customers")
	}
	return len(customers), nil
}

func (s *service) UpsertSuppliers(ctx context.Context, inputs []SupplierInput) (int, error) {
	keys := make([]string, len(inputs))
	for i, in := range inputs {
		keys[i] = in.Name
	}
	if err := validateKeys("name", keys); err != nil {
		return 0, err
	}
	suppliers := make([]models.Supplier, len(inputs))
	for i, in := range inputs {
		suppliers[i] = models.Supplier{
			Name:          strings.TrimSpace(in.Name),
			SupplierGroup: trimmedOrNil(in.SupplierGroup),
		}
	}
	if err := s.repo.UpsertSuppliers(ctx, suppliers); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert suppliers")
	}
	return len(suppliers), nil
}

func (s *service) GetItem(ctx context.Context, code string) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, mapLoadError(err, "item")
	}
	return item, nil
}

func (s *service) GetCustomer(ctx context.Context, name string) (*models.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, mapLoadError(err, "customer")
	}
	return customer, nil
}

func (s *service) GetSupplier(ctx context.Context, name string) (*models.Supplier, error) {
	supplier, err := s.repo.GetSupplier(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, mapLoadError(err, "supplier")
	}
	return supplier, nil
}

// validateKeys rejects empty batches, blank keys and keys repeated within one
// batch, which a single upsert statement cannot apply twice.
func validateKeys(field string, keys []string) error {
	if len(keys) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one row is required")
	}
	var errs error
	seen := make(map[string]int, len(keys))
	for i, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %s is required", i+1, field))
			continue
		}
		if first, ok := seen[key]; ok {
			errs = multierr.Append(errs, fmt.Errorf("row %d: %s %q duplicates row %d", i+1, field, key, first))
			continue
		}
		seen[key] = i + 1
	}
	if errs != nil {
		return pkgerrors.Validation("invalid catalog rows", multierr.Errors(errs))
	}
	return nil
}

func mapLoadError(err error, entity string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
