package promotions

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/metrics"
)

type fakeSource struct {
	schemes   map[uuid.UUID]*models.PromotionalScheme
	order     []uuid.UUID
	broken    map[uuid.UUID]bool
	activeErr error

	gotSide enums.PartySide
	gotAsOf time.Time
}

func newFakeSource() *fakeSource {
	return &fakeSource{schemes: map[uuid.UUID]*models.PromotionalScheme{}, broken: map[uuid.UUID]bool{}}
}

func (f *fakeSource) add(scheme models.PromotionalScheme) uuid.UUID {
	scheme.ID = uuid.New()
	f.schemes[scheme.ID] = &scheme
	f.order = append(f.order, scheme.ID)
	return scheme.ID
}

func (f *fakeSource) addBroken() uuid.UUID {
	id := uuid.New()
	f.broken[id] = true
	f.order = append(f.order, id)
	return id
}

func (f *fakeSource) GetActiveSchemes(_ context.Context, side enums.PartySide, asOf time.Time) ([]uuid.UUID, error) {
	f.gotSide = side
	f.gotAsOf = asOf
	if f.activeErr != nil {
		return nil, f.activeErr
	}
	return f.order, nil
}

func (f *fakeSource) Load(_ context.Context, id uuid.UUID) (*models.PromotionalScheme, error) {
	if f.broken[id] {
		return nil, errors.New("record unreadable")
	}
	scheme, ok := f.schemes[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return scheme, nil
}

type fakeLookup struct {
	items map[string][]string
	err   error
}

func (f fakeLookup) ItemCodesInGroups(_ context.Context, groups []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, g := range groups {
		out = append(out, f.items[g]...)
	}
	return out, nil
}

func (fakeLookup) CustomersInGroups(context.Context, []string) ([]string, error) { return nil, nil }

func (fakeLookup) CustomersInTerritories(context.Context, []string) ([]string, error) {
	return nil, nil
}

func (fakeLookup) SuppliersInGroups(context.Context, []string) ([]string, error) { return nil, nil }

func newTestHook(t *testing.T, source SchemeSource, lookup fakeLookup, strict bool) (*Hook, *notifications.Recorder, *bytes.Buffer, *prometheus.Registry) {
	t.Helper()
	buf := &bytes.Buffer{}
	reg := prometheus.NewRegistry()
	sink := &notifications.Recorder{}
	hook, err := NewHook(HookOptions{
		Schemes:       source,
		Lookup:        lookup,
		Sink:          sink,
		Metrics:       metrics.NewSchemeMetrics(reg),
		Logger:        logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf}),
		StrictLookups: strict,
		Now:           func() time.Time { return time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return hook, sink, buf, reg
}

func submittedInvoice(kind enums.InvoiceKind, items ...models.InvoiceItem) *models.Invoice {
	return &models.Invoice{
		ID:       uuid.New(),
		Name:     "SINV-0001",
		Kind:     kind,
		Customer: strPtr("Acme"),
		Supplier: strPtr("Initech"),
		Items:    items,
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func assertCounter(t *testing.T, reg *prometheus.Registry, name, label, value string, want float64) {
	t.Helper()
	if got := counterValue(t, reg, name, label, value); got != want {
		t.Fatalf("%s{%s=%q} = %v, want %v", name, label, value, got, want)
	}
}

func TestNewHookRequiresCollaborators(t *testing.T) {
	_, err := NewHook(HookOptions{Lookup: fakeLookup{}})
	if err == nil {
		t.Fatal("expected error")
	}

	_, err = NewHook(HookOptions{Schemes: newFakeSource()})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestHookAppliesActiveSchemesOnSubmit(t *testing.T) {
	source := newFakeSource()
	source.add(minimumAmountScheme("TEN", "100", "10"))
	hook, sink, _, reg := newTestHook(t, source, fakeLookup{}, true)
	requestSink := &notifications.Recorder{}
	ctx := notifications.WithSink(context.Background(), requestSink)

	inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "200"))
	hook.Apply(ctx, inv, enums.TriggerPhaseOnSubmit)

	if len(inv.Items) != 1 {
		t.Fatalf("len(inv.Items) = %d, want 1", len(inv.Items))
	}
	assertDecimal(t, "180", inv.Items[0].Rate)
	if source.gotSide != enums.PartySideSelling {
		t.Fatalf("source.gotSide = %v, want %v", source.gotSide, enums.PartySideSelling)
	}
	if source.gotAsOf != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("source.gotAsOf = %v, want %v", source.gotAsOf, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	}

	for _, rec := range []*notifications.Recorder{sink, requestSink} {
		notices := rec.Notices()
		if len(notices) != 1 {
			t.Fatalf("len(notices) = %d, want 1", len(notices))
		}
		if notices[0].InvoiceID == nil {
			t.Fatal("notices[0].InvoiceID is nil")
		}
		if *notices[0].InvoiceID != inv.ID {
			t.Fatalf("*notices[0].InvoiceID = %v, want %v", *notices[0].InvoiceID, inv.ID)
		}
		if notices[0].SchemeName != "TEN" {
			t.Fatalf("notices[0].SchemeName = %v, want %v", notices[0].SchemeName, "TEN")
		}
	}
	assertCounter(t, reg, "scheme_applications_total", "policy", "minimum_amount", 1)
}

func TestHookIgnoresOtherPhases(t *testing.T) {
	source := newFakeSource()
	source.add(minimumAmountScheme("TEN", "0", "10"))
	hook, sink, _, _ := newTestHook(t, source, fakeLookup{}, true)

	inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "200"))
	hook.Apply(context.Background(), inv, enums.TriggerPhaseValidate)
	hook.Apply(context.Background(), inv, enums.TriggerPhaseOnCancel)

	assertDecimal(t, "200", inv.Items[0].Rate)
	if len(sink.Notices()) != 0 {
		t.Fatalf("sink.Notices() = %v, want empty", sink.Notices())
	}
	if source.gotSide != "" {
		t.Fatalf("active schemes looked up for phase other than submit: %q", source.gotSide)
	}
}

func TestHookResolvesBuyingSideForPurchaseInvoices(t *testing.T) {
	source := newFakeSource()
	hook, _, _, _ := newTestHook(t, source, fakeLookup{}, true)

	hook.Apply(context.Background(), submittedInvoice(enums.InvoiceKindPurchase, line("A", "1", "1")), enums.TriggerPhaseOnSubmit)

	if source.gotSide != enums.PartySideBuying {
		t.Fatalf("source.gotSide = %v, want %v", source.gotSide, enums.PartySideBuying)
	}
}

func TestHookSkipsUnreadableSchemes(t *testing.T) {
	source := newFakeSource()
	source.addBroken()
	source.add(minimumAmountScheme("TEN", "0", "10"))
	hook, sink, buf, reg := newTestHook(t, source, fakeLookup{}, true)

	inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "100"))
	hook.Apply(context.Background(), inv, enums.TriggerPhaseOnSubmit)

	assertDecimal(t, "90", inv.Items[0].Rate)
	if len(sink.Notices()) != 1 {
		t.Fatalf("len(sink.Notices()) = %d, want 1", len(sink.Notices()))
	}
	if !strings.Contains(buf.String(), "promotions.scheme_unreadable") {
		t.Fatalf("buf.String() does not contain %q: %s", "promotions.scheme_unreadable", buf.String())
	}
	assertCounter(t, reg, "scheme_skips_total", "reason", metrics.SkipUnreadable, 1)
}

func TestHookActiveLookupFailureLeavesInvoiceUntouched(t *testing.T) {
	source := newFakeSource()
	source.activeErr = errors.New("db down")
	hook, sink, buf, _ := newTestHook(t, source, fakeLookup{}, true)

	inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "100"))
	hook.Apply(context.Background(), inv, enums.TriggerPhaseOnSubmit)

	assertDecimal(t, "100", inv.Items[0].Rate)
	if len(sink.Notices()) != 0 {
		t.Fatalf("sink.Notices() = %v, want empty", sink.Notices())
	}
	if !strings.Contains(buf.String(), "promotions.active_lookup_failed") {
		t.Fatalf("buf.String() does not contain %q: %s", "promotions.active_lookup_failed", buf.String())
	}
}

func TestHookItemGroupLookupFailure(t *testing.T) {
	groupScheme := minimumAmountScheme("GROUP10", "0", "10", scopeRow(enums.ScopeCollectionItemGroup, "Beverages"))
	lookup := fakeLookup{err: errors.New("items table unavailable")}

	t.Run("strict skips the scheme", func(t *testing.T) {
		source := newFakeSource()
		source.add(groupScheme)
		hook, sink, buf, reg := newTestHook(t, source, lookup, true)

		inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "100"), line("B", "1", "100"))
		hook.Apply(context.Background(), inv, enums.TriggerPhaseOnSubmit)

		assertDecimal(t, "100", inv.Items[0].Rate)
		assertDecimal(t, "100", inv.Items[1].Rate)
		if len(sink.Notices()) != 0 {
			t.Fatalf("sink.Notices() = %v, want empty", sink.Notices())
		}
		if !strings.Contains(buf.String(), "promotions.item_scope_failed") {
			t.Fatalf("buf.String() does not contain %q: %s", "promotions.item_scope_failed", buf.String())
		}
		assertCounter(t, reg, "scheme_skips_total", "reason", metrics.SkipLookupFailed, 1)
	})

	t.Run("lenient treats the scope as unrestricted", func(t *testing.T) {
		source := newFakeSource()
		source.add(groupScheme)
		hook, sink, buf, _ := newTestHook(t, source, lookup, false)

		inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "100"), line("B", "1", "100"))
		hook.Apply(context.Background(), inv, enums.TriggerPhaseOnSubmit)

		assertDecimal(t, "90", inv.Items[0].Rate)
		assertDecimal(t, "90", inv.Items[1].Rate)
		if len(sink.Notices()) != 1 {
			t.Fatalf("len(sink.Notices()) = %d, want 1", len(sink.Notices()))
		}
		if !strings.Contains(buf.String(), "promotions.item_scope_degraded") {
			t.Fatalf("buf.String() does not contain %q: %s", "promotions.item_scope_degraded", buf.String())
		}
	})
}

func TestHookExpandsItemGroups(t *testing.T) {
	source := newFakeSource()
	source.add(minimumAmountScheme("GROUP10", "0", "10", scopeRow(enums.ScopeCollectionItemGroup, "Beverages")))
	hook, _, _, _ := newTestHook(t, source, fakeLookup{items: map[string][]string{"Beverages": {"B"}}}, true)

	inv := submittedInvoice(enums.InvoiceKindSales, line("A", "1", "100"), line("B", "1", "100"))
	hook.Apply(context.Background(), inv, enums.TriggerPhaseOnSubmit)

	assertDecimal(t, "100", inv.Items[0].Rate)
	assertDecimal(t, "90", inv.Items[1].Rate)
}

func TestHookRecordsSkipReasons(t *testing.T) {
	source := newFakeSource()
	source.add(minimumAmountScheme("VIP", "0", "10", scopeRow(enums.ScopeCollectionCustomer, "Globex")))
	hook, _, _, reg := newTestHook(t, source, fakeLookup{}, true)

	hook.Apply(context.Background(), submittedInvoice(enums.InvoiceKindSales, line("A", "1", "1")), enums.TriggerPhaseOnSubmit)

	assertCounter(t, reg, "scheme_skips_total", "reason", metrics.SkipParty, 1)
}
