package reports

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/promoschemes/internal/schemes"
	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
)

// SchemeLister supplies the schemes evaluated by the report.
type SchemeLister interface {
	ListForReport(ctx context.Context, filter schemes.ReportFilter) ([]models.PromotionalScheme, error)
}

// Service runs the promotional scheme eligibility report.
type Service interface {
	Execute(ctx context.Context, filters Filters) ([]Column, []Row, error)
}

// ServiceParams wires the report service.
type ServiceParams struct {
	Schemes SchemeLister
	DB      *db.Client
	Lookup  scope.Lookup
	Metrics *metrics.SchemeMetrics
	Logger  *logger.Logger
}

type service struct {
	schemes  SchemeLister
	dbClient *db.Client
	lookup   scope.Lookup
	metrics  *metrics.SchemeMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Schemes == nil {
		return nil, errors.New("scheme lister required")
	}
	if params.DB == nil {
		return nil, errors.New("db client required")
	}
	m := params.Metrics
	if m == nil {
		m = metrics.NewSchemeMetrics(nil)
	}
	return &service{
		schemes:  params.Schemes,
		dbClient: params.DB,
		lookup:   params.Lookup,
		metrics:  m,
		logg:     params.Logger,
	}, nil
}

// Execute evaluates every scheme matching the name and apply-on filters against
// the submitted invoices and returns the fixed columns with the filtered rows.
// Reference lookups and per-scheme aggregates that fail are logged and narrow the
// result; only a failure to list schemes is returned.
func (s *service) Execute(ctx context.Context, filters Filters) ([]Column, []Row, error) {
	started := time.Now()

	listFilter := schemes.ReportFilter{Name: filters.SchemeName}
	if filters.ApplyOn != "" {
		applyOn, err := enums.ParseApplyOn(filters.ApplyOn)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid apply_on filter")
		}
		listFilter.ApplyOn = &applyOn
		filters.ApplyOn = applyOn.String()
	}
	if filters.FromDate != nil && filters.ToDate != nil && filters.FromDate.After(*filters.ToDate) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "from_date cannot be later than to_date")
	}

	list, err := s.schemes.ListForReport(ctx, listFilter)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, nil, typed
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list schemes for report")
	}

	rows := []Row{}
	for _, scheme := range list {
		rows = append(rows, s.schemeRows(ctx, scheme, filters)...)
	}
	rows = ApplyFilters(rows, filters)

	s.metrics.ObserveReport(time.Since(started), len(rows))
	return Columns(), rows, nil
}

func (s *service) schemeRows(ctx context.Context, scheme models.PromotionalScheme, filters Filters) []Row {
	if s.logg != nil {
		ctx = s.logg.WithScheme(ctx, scheme.ID.String(), scheme.Name)
	}

	side := scheme.PartySide
	if !side.IsValid() {
		side = enums.PartySideSelling
	}

	parties, restricted := s.parties(ctx, scheme, side)
	if restricted && len(parties) == 0 {
		return nil
	}

	items, err := scope.ResolveItemScope(ctx, scheme, s.lookup)
	if err != nil {
		s.warn(ctx, "reports.item_scope_degraded", err)
	}

	byGroup := scheme.ApplyOn != nil && *scheme.ApplyOn == enums.ApplyOnItemGroup
	keys := items.Codes.Sorted()
	if byGroup {
		keys = items.Groups.Sorted()
	}

	params := TotalsParams{
		Side:       side,
		From:       firstDate(filters.FromDate, scheme.ValidFrom),
		To:         firstDate(filters.ToDate, scheme.ValidTo),
		Parties:    parties,
		ByGroup:    byGroup,
		PerParty:   len(keys) == 0,
		ItemGroups: items.Groups.Sorted(),
	}
	if !byGroup || items.Groups.Empty() {
		params.ItemCodes = items.Codes.Sorted()
	}
	totals, err := s.totals(ctx, params)
	if err != nil {
		s.warn(ctx, "reports.totals_failed", err)
		return nil
	}

	if !restricted {
		found := scope.NewSet()
		for k := range totals {
			if k.party != "" {
				found.Add(k.party)
			}
		}
		parties = found.Sorted()
	}
	if len(keys) == 0 {
		keys = []string{""}
	}

	partyType := side.PartyType()
	rows := make([]Row, 0, len(parties)*len(keys))
	for _, party := range parties {
		for _, key := range keys {
			rows = append(rows, buildRow(scheme, partyType, party, key, totals[totalKey{party: party, key: key}]))
		}
	}
	return rows
}

// parties returns the concrete parties of the scheme's side and whether the
// scheme restricts that side at all. An unrestricted side reports on every party
// found in the aggregate.
func (s *service) parties(ctx context.Context, scheme models.PromotionalScheme, side enums.PartySide) ([]string, bool) {
	raw := scope.RawPartyScope(scheme)
	restricted := !raw.Customers.Empty() || !raw.CustomerGroups.Empty() || !raw.Territories.Empty()
	if side == enums.PartySideBuying {
		restricted = !raw.Suppliers.Empty() || !raw.SupplierGroups.Empty()
	}
	if !restricted {
		return nil, false
	}

	expanded, err := scope.ExpandedPartyScope(ctx, scheme, s.lookup)
	if err != nil {
		s.warn(ctx, "reports.party_scope_degraded", err)
	}
	if side == enums.PartySideBuying {
		return expanded.Suppliers.Sorted(), true
	}
	return expanded.Customers.Sorted(), true
}

type totalKey struct {
	party string
	key   string
}

func (s *service) totals(ctx context.Context, params TotalsParams) (map[totalKey]total, error) {
	query, args := TotalsQuery(params)
	var rows []total
	if err := s.dbClient.Raw(ctx, query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[totalKey]total, len(rows))
	for _, row := range rows {
		key := ""
		if row.ItemKey != nil {
			key = *row.ItemKey
		}
		out[totalKey{party: row.Party, key: key}] = row
	}
	return out, nil
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(ctx, msg+": "+err.Error())
}

func firstDate(override, fallback *time.Time) *time.Time {
	if override != nil {
		d := models.DateOf(*override)
		return &d
	}
	if fallback != nil {
		d := models.DateOf(*fallback)
		return &d
	}
	return nil
}
