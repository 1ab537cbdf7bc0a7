package schemes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// Unique name violations as reported by postgres and sqlite.
const (
	nameConstraint = "promotional_schemes_name_key"
	nameColumn     = "promotional_schemes.name"
)

// DefaultOverlapLimit caps ListOverlapping when no limit is configured.
const DefaultOverlapLimit = 50

// Service manages promotional scheme records and answers the static queries
// used by the apply hook and the report.
type Service interface {
	Create(ctx context.Context, input SchemeInput) (*SchemeDTO, error)
	Update(ctx context.Context, id uuid.UUID, input SchemeInput) (*SchemeDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*SchemeDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	GetActiveSchemes(ctx context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error)
	ListOverlapping(ctx context.Context, from, to time.Time) ([]SchemeSummary, error)
	Load(ctx context.Context, id uuid.UUID) (*models.PromotionalScheme, error)
	ListForReport(ctx context.Context, filter ReportFilter) ([]models.PromotionalScheme, error)
}

type service struct {
	repo         Repository
	dbClient     *db.Client
	overlapLimit int
}

// NewService wires the scheme service. overlapLimit <= 0 uses DefaultOverlapLimit.
func NewService(repo Repository, dbClient *db.Client, overlapLimit int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("scheme repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if overlapLimit <= 0 {
		overlapLimit = DefaultOverlapLimit
	}
	return &service{repo: repo, dbClient: dbClient, overlapLimit: overlapLimit}, nil
}

func (s *service) Create(ctx context.Context, input SchemeInput) (*SchemeDTO, error) {
	input = normalizeInput(input)
	scheme := input.toModel()
	if err := validateScheme(input, scheme); err != nil {
		return nil, err
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, scheme)
	})
	if err != nil {
		return nil, mapWriteError(err, "create scheme")
	}
	return s.Get(ctx, scheme.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input SchemeInput) (*SchemeDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheme id required")
	}
	input = normalizeInput(input)
	scheme := input.toModel()
	if err := validateScheme(input, scheme); err != nil {
		return nil, err
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		scheme.ID = existing.ID
		scheme.CreatedAt = existing.CreatedAt
		return repo.Update(ctx, scheme)
	})
	if err != nil {
		return nil, mapWriteError(err, "update scheme")
	}
	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*SchemeDTO, error) {
	scheme, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*scheme)
	return &dto, nil
}

// Load returns the full scheme record including child rows.
func (s *service) Load(ctx context.Context, id uuid.UUID) (*models.PromotionalScheme, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "scheme id required")
	}
	scheme, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scheme not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load scheme")
	}
	return scheme, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "scheme id required")
	}
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "scheme not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete scheme")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listParams{PartySide: params.PartySide, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list schemes")
	}

	items := make([]SchemeSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, summaryFromModel(row))
	}
	return &ListResult{Items: items, Cursor: pagination.Next(next)}, nil
}

// GetActiveSchemes returns the ids of schemes of the given party side whose
// validity window contains asOf's calendar date.
func (s *service) GetActiveSchemes(ctx context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error) {
	if !side.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "party_side must be selling or buying")
	}
	ids, err := s.repo.ActiveIDs(ctx, side, models.DateOf(asOf))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active schemes")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

// ListOverlapping returns schemes whose validity window intersects [from, to].
func (s *service) ListOverlapping(ctx context.Context, from, to time.Time) ([]SchemeSummary, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	if from.After(to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgDateOrder)
	}
	rows, err := s.repo.Overlapping(ctx, from, to, s.overlapLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overlapping schemes")
	}
	items := make([]SchemeSummary, 0, len(rows))
	for _, row := range rows {
		items = append(items, summaryFromModel(row))
	}
	return items, nil
}

func (s *service) ListForReport(ctx context.Context, filter ReportFilter) ([]models.PromotionalScheme, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	rows, err := s.repo.ListForReport(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list schemes for report")
	}
	return rows, nil
}

func normalizeInput(in SchemeInput) SchemeInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			in.Title = nil
		} else {
			in.Title = &title
		}
	}
	for i := range in.QuantitySlabs {
		if p := in.QuantitySlabs[i].FreeProduct; p != nil {
			trimmed := strings.TrimSpace(*p)
			if trimmed == "" {
				in.QuantitySlabs[i].FreeProduct = nil
			} else {
				in.QuantitySlabs[i].FreeProduct = &trimmed
			}
		}
	}
	return in
}

func mapWriteError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "scheme not found")
	}
	if db.IsUniqueViolation(err, nameConstraint) || db.IsUniqueViolation(err, nameColumn) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a scheme with this name already exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
