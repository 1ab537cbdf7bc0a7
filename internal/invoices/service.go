package invoices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// Applier runs lifecycle rules against an invoice in place.
type Applier interface {
	Apply(ctx context.Context, invoice *models.Invoice, phase enums.TriggerPhase)
}

// PartyDirectory fills party and item attributes an invoice leaves blank.
type PartyDirectory interface {
	GetCustomer(ctx context.Context, name string) (*models.Customer, error)
	GetSupplier(ctx context.Context, name string) (*models.Supplier, error)
	GetItem(ctx context.Context, code string) (*models.Item, error)
}

// Service manages invoices through their draft → submitted → cancelled lifecycle.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

// ServiceParams wires the invoice service.
type ServiceParams struct {
	Repo          Repository
	DB            *db.Client
	Hook          Applier
	Notifications notifications.Repository
	Directory     PartyDirectory
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo      Repository
	dbClient  *db.Client
	hook      Applier
	notices   notifications.Repository
	directory PartyDirectory
	logg      *logger.Logger
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Hook == nil {
		return nil, fmt.Errorf("apply hook required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		dbClient:  params.DB,
		hook:      params.Hook,
		notices:   params.Notifications,
		directory: params.Directory,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	invoice, err := s.buildDraft(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err, "invoices_name_key") || db.IsUniqueViolation(err, "invoices.name") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an invoice with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}
	return s.Get(ctx, invoice.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return invoice, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{Kind: params.Kind, DocStatus: params.DocStatus, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	if rows == nil {
		rows = []models.Invoice{}
	}
	return &ListResult{Items: rows, Cursor: pagination.Next(next)}, nil
}

// Submit finalizes a draft and applies the active promotional schemes to it in
// the same transaction. Invoices that are not drafts are rejected, so schemes
// are applied at most once per invoice.
func (s *service) Submit(ctx context.Context, id uuid.UUID) (*SubmitResult, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	if s.logg != nil {
		ctx = s.logg.WithInvoiceID(ctx, id.String())
	}

	recorder := &notifications.Recorder{}
	var submitted *models.Invoice
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.DocStatus != enums.DocStatusDraft {
			return notDraftError(invoice.DocStatus)
		}

		at := s.now().UTC()
		if err := repo.MarkSubmitted(ctx, id, at); err != nil {
			return err
		}
		invoice.DocStatus = enums.DocStatusSubmitted
		invoice.SubmittedAt = &at

		hookCtx := notifications.WithSink(ctx, notifications.Fanout{
			notifications.NewStore(s.notices.WithTx(tx), s.logg),
			recorder,
		})
		s.hook.Apply(hookCtx, invoice, enums.TriggerPhaseOnSubmit)

		recalculate(invoice)
		if err := repo.ReplaceItems(ctx, invoice.ID, invoice.Items); err != nil {
			return err
		}
		if err := repo.UpdateGrandTotal(ctx, invoice.ID, invoice.GrandTotal); err != nil {
			return err
		}
		submitted = invoice
		return nil
	})
	if err != nil {
		if errors.Is(err, errStatusChanged) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "invoice is no longer a draft")
		}
		return nil, mapLoadError(err)
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "notices", len(recorder.Notices())), "invoice.submitted")
	}
	reloaded, err := s.Get(ctx, submitted.ID)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Invoice: reloaded, Notices: recorder.Notices()}, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		invoice, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if invoice.DocStatus != enums.DocStatusSubmitted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only submitted invoices can be cancelled").
				WithDetails(map[string]any{"docstatus": invoice.DocStatus.String()})
		}
		return repo.MarkCancelled(ctx, id)
	})
	if err != nil {
		if errors.Is(err, errStatusChanged) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "invoice is no longer submitted")
		}
		return nil, mapLoadError(err)
	}
	return s.Get(ctx, id)
}

func (s *service) buildDraft(ctx context.Context, input CreateInput) (*models.Invoice, error) {
	var errs error
	if !input.Kind.IsValid() {
		errs = multierr.Append(errs, fmt.Errorf("kind %q must be sales or purchase", input.Kind))
	}
	customer := trimmedOrNil(input.Customer)
	supplier := trimmedOrNil(input.Supplier)
	switch input.Kind {
	case enums.InvoiceKindSales:
		if customer == nil {
			errs = multierr.Append(errs, errors.New("customer is required for sales invoices"))
		}
	case enums.InvoiceKindPurchase:
		if supplier == nil {
			errs = multierr.Append(errs, errors.New("supplier is required for purchase invoices"))
		}
	}
	if len(input.Items) == 0 {
		errs = multierr.Append(errs, errors.New("at least one item is required"))
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ItemCode) == "" {
			errs = multierr.Append(errs, fmt.Errorf("item %d: item_code is required", i+1))
		}
		if !item.Qty.IsPositive() {
			errs = multierr.Append(errs, fmt.Errorf("item %d: qty must be positive", i+1))
		}
		if item.Rate.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("item %d: rate cannot be negative", i+1))
		}
	}
	if errs != nil {
		return nil, pkgerrors.Validation("invalid invoice", multierr.Errors(errs))
	}

	postingDate := models.DateOf(s.now())
	if input.PostingDate != nil {
		postingDate = models.DateOf(*input.PostingDate)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = defaultName(input.Kind)
	}

	invoice := &models.Invoice{
		Name:          name,
		Kind:          input.Kind,
		Customer:      customer,
		CustomerGroup: trimmedOrNil(input.CustomerGroup),
		Territory:     trimmedOrNil(input.Territory),
		Supplier:      supplier,
		SupplierGroup: trimmedOrNil(input.SupplierGroup),
		PostingDate:   postingDate,
		DocStatus:     enums.DocStatusDraft,
	}
	for i, item := range input.Items {
		amount := item.Qty.Mul(item.Rate)
		net := amount
		if item.NetAmount != nil {
			net = *item.NetAmount
		}
		invoice.Items = append(invoice.Items, models.InvoiceItem{
			Idx:        i + 1,
			ItemCode:   strings.TrimSpace(item.ItemCode),
			ItemName:   trimmedOrNil(item.ItemName),
			Qty:        item.Qty,
			Rate:       item.Rate,
			Amount:     amount,
			BaseRate:   item.Rate,
			BaseAmount: amount,
			NetAmount:  net,
		})
	}
	if err := s.fillFromDirectory(ctx, invoice); err != nil {
		return nil, err
	}
	invoice.GrandTotal = grandTotal(invoice.Items)
	return invoice, nil
}

// fillFromDirectory copies party groups, territory and item names from the
// reference tables when the caller left them blank. Unknown parties and items
// are kept as given.
func (s *service) fillFromDirectory(ctx context.Context, invoice *models.Invoice) error {
	if s.directory == nil {
		return nil
	}
	switch invoice.Kind {
	case enums.InvoiceKindSales:
		if invoice.CustomerGroup == nil || invoice.Territory == nil {
			customer, err := s.directory.GetCustomer(ctx, *invoice.Customer)
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			if customer != nil {
				if invoice.CustomerGroup == nil {
					invoice.CustomerGroup = customer.CustomerGroup
				}
				if invoice.Territory == nil {
					invoice.Territory = customer.Territory
				}
			}
		}
	case enums.InvoiceKindPurchase:
		if invoice.SupplierGroup == nil {
			supplier, err := s.directory.GetSupplier(ctx, *invoice.Supplier)
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return err
			}
			if supplier != nil {
				invoice.SupplierGroup = supplier.SupplierGroup
			}
		}
	}
	for i := range invoice.Items {
		if invoice.Items[i].ItemName != nil {
			continue
		}
		item, err := s.directory.GetItem(ctx, invoice.Items[i].ItemCode)
		if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return err
		}
		if item != nil {
			invoice.Items[i].ItemName = item.ItemName
		}
	}
	return nil
}

// recalculate renumbers lines and derives net amounts and the grand total after
// the apply hook has re-priced or appended lines.
func recalculate(invoice *models.Invoice) {
	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.Idx = i + 1
		if item.PromotionalSchemeApplied != nil || item.IsFreeItem {
			item.NetAmount = item.Amount
		}
	}
	invoice.GrandTotal = grandTotal(invoice.Items)
}

func grandTotal(items []models.InvoiceItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.NetAmount)
	}
	return total
}

func notDraftError(status enums.DocStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invoice has already been submitted").
		WithDetails(map[string]any{"docstatus": status.String()})
}

func mapLoadError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invoice store")
}

func defaultName(kind enums.InvoiceKind) string {
	prefix := "SINV"
	if kind == enums.InvoiceKindPurchase {
		prefix = "PINV"
	}
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
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
