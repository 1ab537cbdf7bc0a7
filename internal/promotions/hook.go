package promotions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
)

// SchemeSource supplies active schemes to the hook.
type SchemeSource interface {
	GetActiveSchemes(ctx context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error)
	Load(ctx context.Context, id uuid.UUID) (*models.PromotionalScheme, error)
}

// HookOptions wires the collaborators of a Hook.
type HookOptions struct {
	Schemes       SchemeSource
	Lookup        scope.Lookup
	Sink          notifications.Sink
	Metrics       *metrics.SchemeMetrics
	Logger        *logger.Logger
	StrictLookups bool
	Location      *time.Location
	Now           func() time.Time
}

// Hook applies active promotional schemes to invoices on submission.
type Hook struct {
	schemes SchemeSource
	lookup  scope.Lookup
	sink    notifications.Sink
	metrics *metrics.SchemeMetrics
	logg    *logger.Logger
	strict  bool
	loc     *time.Location
	now     func() time.Time
}

func NewHook(opts HookOptions) (*Hook, error) {
	if opts.Schemes == nil {
		return nil, errors.New("scheme source required")
	}
	if opts.Lookup == nil {
		return nil, errors.New("scope lookup required")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewSchemeMetrics(nil)
	}
	return &Hook{
		schemes: opts.Schemes,
		lookup:  opts.Lookup,
		sink:    opts.Sink,
		metrics: m,
		logg:    opts.Logger,
		strict:  opts.StrictLookups,
		loc:     loc,
		now:     now,
	}, nil
}

// Apply evaluates every active scheme for the invoice's party side against inv and
// replaces inv.Items with the transformed lines. Failures narrow the set of applied
// schemes and are never returned.
func (h *Hook) Apply(ctx context.Context, inv *models.Invoice, phase enums.TriggerPhase) {
	if inv == nil || !phase.AppliesSchemes() {
		return
	}
	side, ok := inv.Kind.PartySide()
	if !ok {
		return
	}
	ctx = h.withInvoice(ctx, inv)

	today := models.DateOf(h.now().In(h.loc))
	ids, err := h.schemes.GetActiveSchemes(ctx, side, today)
	if err != nil {
		h.warn(ctx, "promotions.active_lookup_failed", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	candidates := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		candidate, ok := h.candidate(ctx, id)
		if ok {
			candidates = append(candidates, candidate)
		}
	}
	if len(candidates) == 0 {
		return
	}

	result := Transform(ViewOf(inv), candidates)
	inv.Items = result.Items

	for _, outcome := range result.Outcomes {
		if outcome.Applied {
			h.metrics.IncApplied(outcome.Policy.String())
			h.metrics.AddFreeLines(outcome.FreeLines)
			continue
		}
		h.metrics.IncSkipped(outcome.SkipReason)
		if h.logg != nil {
			h.logg.Debug(h.logg.WithField(ctx, "skip_reason", outcome.SkipReason), "promotions.scheme_skipped: "+outcome.SchemeName)
		}
	}

	requestSink := notifications.SinkFromContext(ctx)
	for _, notice := range result.Notices {
		if inv.ID != uuid.Nil {
			id := inv.ID
			notice.InvoiceID = &id
		}
		if h.sink != nil {
			h.sink.Notify(ctx, notice)
		}
		if requestSink != nil {
			requestSink.Notify(ctx, notice)
		}
	}
}

func (h *Hook) candidate(ctx context.Context, id uuid.UUID) (Candidate, bool) {
	schemeCtx := ctx
	if h.logg != nil {
		schemeCtx = h.logg.WithField(ctx, "scheme_id", id.String())
	}

	scheme, err := h.schemes.Load(ctx, id)
	if err != nil || scheme == nil {
		h.metrics.IncSkipped(metrics.SkipUnreadable)
		h.warn(schemeCtx, "promotions.scheme_unreadable", err)
		return Candidate{}, false
	}
	if h.logg != nil {
		schemeCtx = h.logg.WithScheme(ctx, scheme.ID.String(), scheme.Name)
	}

	items, err := scope.ResolveItemScope(ctx, *scheme, h.lookup)
	if err != nil {
		if h.strict {
			h.metrics.IncSkipped(metrics.SkipLookupFailed)
			h.warn(schemeCtx, "promotions.item_scope_failed", err)
			return Candidate{}, false
		}
		h.warn(schemeCtx, "promotions.item_scope_degraded", err)
	}
	return Candidate{Scheme: *scheme, Items: items}, true
}

func (h *Hook) withInvoice(ctx context.Context, inv *models.Invoice) context.Context {
	if h.logg == nil || inv.ID == uuid.Nil {
		return ctx
	}
	return h.logg.WithInvoiceID(ctx, inv.ID.String())
}

func (h *Hook) warn(ctx context.Context, msg string, err error) {
	if h.logg == nil {
		return
	}
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	h.logg.Warn(ctx, msg)
}
