package invoices

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/internal/catalog"
	"github.com/angelmondragon/promoschemes/internal/notifications"
	"github.com/angelmondragon/promoschemes/internal/promotions"
	"github.com/angelmondragon/promoschemes/internal/schemes"
	"github.com/angelmondragon/promoschemes/internal/scope"
	"github.com/angelmondragon/promoschemes/pkg/db"
	"github.com/angelmondragon/promoschemes/pkg/db/dbtest"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
)

func strPtr(v string) *string { return &v }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !dec(want).Equal(got) {
		t.Fatalf("got %s, want %s", got.String(), want)
	}
}

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// stubHook halves every rate and emits one notice per call.
type stubHook struct {
	calls int
}

func (h *stubHook) Apply(ctx context.Context, invoice *models.Invoice, phase enums.TriggerPhase) {
	if phase != enums.TriggerPhaseOnSubmit {
		return
	}
	h.calls++
	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.Rate = item.Rate.Div(decimal.NewFromInt(2))
		item.Amount = item.Qty.Mul(item.Rate)
		item.PromotionalSchemeApplied = strPtr("HALF")
	}
	id := invoice.ID
	if sink := notifications.SinkFromContext(ctx); sink != nil {
		sink.Notify(ctx, notifications.Notice{InvoiceID: &id, SchemeName: "HALF", Kind: enums.NoticeKindDiscount, Message: "half off"})
	}
}

type fixture struct {
	conn    *gorm.DB
	svc     Service
	notices notifications.Repository
}

func newFixture(t *testing.T, hook Applier, directory PartyDirectory) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	notices := notifications.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(conn),
		DB:            db.FromGorm(conn),
		Hook:          hook,
		Notifications: notices,
		Directory:     directory,
		Now:           func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return fixture{conn: conn, svc: svc, notices: notices}
}

func salesInput(items ...ItemInput) CreateInput {
	return CreateInput{
		Kind:     enums.InvoiceKindSales,
		Customer: strPtr("Acme"),
		Items:    items,
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	conn := dbtest.Open(t)
	base := ServiceParams{
		Repo:          NewRepository(conn),
		DB:            db.FromGorm(conn),
		Hook:          &stubHook{},
		Notifications: notifications.NewRepository(conn),
	}
	for _, mutate := range map[string]func(*ServiceParams){
		"repo":          func(p *ServiceParams) { p.Repo = nil },
		"db":            func(p *ServiceParams) { p.DB = nil },
		"hook":          func(p *ServiceParams) { p.Hook = nil },
		"notifications": func(p *ServiceParams) { p.Notifications = nil },
	} {
		params := base
		mutate(&params)
		_, err := NewService(params)
		if err == nil {
			t.Fatal("expected error")
		}
	}
}

func TestCreateBuildsDraft(t *testing.T) {
	f := newFixture(t, &stubHook{}, nil)

	inv, err := f.svc.Create(context.Background(), salesInput(
		ItemInput{ItemCode: " COLA ", Qty: dec("3"), Rate: dec("2.5")},
		ItemInput{ItemCode: "CHIPS", Qty: dec("1"), Rate: dec("4"), NetAmount: decPtr("3.5")},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inv.DocStatus != enums.DocStatusDraft {
		t.Fatalf("inv.DocStatus = %v, want %v", inv.DocStatus, enums.DocStatusDraft)
	}
	if !strings.Contains(inv.Name, "SINV-") {
		t.Fatalf("inv.Name does not contain %q: %s", "SINV-", inv.Name)
	}
	if inv.PostingDate.UTC() != models.DateOf(fixedNow) {
		t.Fatalf("inv.PostingDate.UTC() = %v, want %v", inv.PostingDate.UTC(), models.DateOf(fixedNow))
	}
	if len(inv.Items) != 2 {
		t.Fatalf("len(inv.Items) = %d, want 2", len(inv.Items))
	}
	if inv.Items[0].ItemCode != "COLA" {
		t.Fatalf("inv.Items[0].ItemCode = %v, want %v", inv.Items[0].ItemCode, "COLA")
	}
	assertDecimal(t, "7.5", inv.Items[0].Amount)
	assertDecimal(t, "7.5", inv.Items[0].NetAmount)
	assertDecimal(t, "3.5", inv.Items[1].NetAmount)
	assertDecimal(t, "11", inv.GrandTotal)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture(t, &stubHook{}, nil)

	_, err := f.svc.Create(context.Background(), CreateInput{
		Kind:  enums.InvoiceKindPurchase,
		Items: []ItemInput{{Qty: dec("0"), Rate: dec("-1")}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatal("typed is nil")
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("typed.Code() = %v, want %v", typed.Code(), pkgerrors.CodeValidation)
	}
	want := []string{
		"supplier is required for purchase invoices",
		"item 1: item_code is required",
		"item 1: qty must be positive",
		"item 1: rate cannot be negative",
	}
	if !reflect.DeepEqual(typed.Details(), want) {
		t.Fatalf("details = %v, want %v", typed.Details(), want)
	}
}

func TestCreateFillsPartyAttributesFromCatalog(t *testing.T) {
	conn := dbtest.Open(t)
	catalogRepo := catalog.NewRepository(conn)
	directory, err := catalog.NewService(catalogRepo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = directory.UpsertCustomers(context.Background(), []catalog.CustomerInput{
		{Name: "Acme", CustomerGroup: strPtr("Retail"), Territory: strPtr("North")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = directory.UpsertItems(context.Background(), []catalog.ItemInput{{Code: "COLA", ItemName: strPtr("Cola 330ml")}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(conn),
		DB:            db.FromGorm(conn),
		Hook:          &stubHook{},
		Notifications: notifications.NewRepository(conn),
		Directory:     directory,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inv, err := svc.Create(context.Background(), salesInput(
		ItemInput{ItemCode: "COLA", Qty: dec("1"), Rate: dec("1")},
		ItemInput{ItemCode: "UNKNOWN", Qty: dec("1"), Rate: dec("1")},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *inv.CustomerGroup != "Retail" {
		t.Fatalf("*inv.CustomerGroup = %v, want %v", *inv.CustomerGroup, "Retail")
	}
	if *inv.Territory != "North" {
		t.Fatalf("*inv.Territory = %v, want %v", *inv.Territory, "North")
	}
	if *inv.Items[0].ItemName != "Cola 330ml" {
		t.Fatalf("*inv.Items[0].ItemName = %v, want %v", *inv.Items[0].ItemName, "Cola 330ml")
	}
	if inv.Items[1].ItemName != nil {
		t.Fatalf("inv.Items[1].ItemName = %v, want nil", inv.Items[1].ItemName)
	}
}

func TestSubmitAppliesHookOnceAndPersistsNotices(t *testing.T) {
	hook := &stubHook{}
	f := newFixture(t, hook, nil)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, salesInput(ItemInput{ItemCode: "COLA", Qty: dec("2"), Rate: dec("10")}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := f.svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hook.calls != 1 {
		t.Fatalf("hook.calls = %v, want %v", hook.calls, 1)
	}
	if res.Invoice.DocStatus != enums.DocStatusSubmitted {
		t.Fatalf("res.Invoice.DocStatus = %v, want %v", res.Invoice.DocStatus, enums.DocStatusSubmitted)
	}
	if res.Invoice.SubmittedAt == nil {
		t.Fatal("res.Invoice.SubmittedAt is nil")
	}
	assertDecimal(t, "5", res.Invoice.Items[0].Rate)
	assertDecimal(t, "10", res.Invoice.Items[0].NetAmount)
	assertDecimal(t, "10", res.Invoice.GrandTotal)
	if len(res.Notices) != 1 {
		t.Fatalf("len(res.Notices) = %d, want 1", len(res.Notices))
	}
	if res.Notices[0].Message != "half off" {
		t.Fatalf("res.Notices[0].Message = %v, want %v", res.Notices[0].Message, "half off")
	}

	svc, err := notifications.NewService(f.notices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := svc.ListForInvoice(ctx, notifications.ListParams{InvoiceID: draft.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("len(stored.Items) = %d, want 1", len(stored.Items))
	}
	if stored.Items[0].SchemeName != "HALF" {
		t.Fatalf("stored.Items[0].SchemeName = %v, want %v", stored.Items[0].SchemeName, "HALF")
	}

	_, err = f.svc.Submit(ctx, draft.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want pkgerrors.CodeStateConflict", err)
	}
	if hook.calls != 1 {
		t.Fatalf("hook.calls = %v, want %v", hook.calls, 1)
	}
}

func TestSubmitMissingInvoice(t *testing.T) {
	f := newFixture(t, &stubHook{}, nil)

	_, err := f.svc.Submit(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("err = %v, want pkgerrors.CodeNotFound", err)
	}
}

func TestCancelLifecycle(t *testing.T) {
	f := newFixture(t, &stubHook{}, nil)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, salesInput(ItemInput{ItemCode: "COLA", Qty: dec("1"), Rate: dec("1")}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.svc.Cancel(ctx, draft.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want pkgerrors.CodeStateConflict", err)
	}

	_, err = f.svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.svc.Cancel(ctx, draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.DocStatus != enums.DocStatusCancelled {
		t.Fatalf("cancelled.DocStatus = %v, want %v", cancelled.DocStatus, enums.DocStatusCancelled)
	}

	_, err = f.svc.Submit(ctx, draft.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("err = %v, want pkgerrors.CodeStateConflict", err)
	}
}

func TestListFiltersAndPages(t *testing.T) {
	f := newFixture(t, &stubHook{}, nil)
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		inv, err := f.svc.Create(ctx, salesInput(ItemInput{ItemCode: "COLA", Qty: dec("1"), Rate: dec("1")}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, inv.ID)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := f.svc.Submit(ctx, ids[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	submitted := enums.DocStatusSubmitted
	onlySubmitted, err := f.svc.List(ctx, ListParams{DocStatus: &submitted})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(onlySubmitted.Items) != 1 {
		t.Fatalf("len(onlySubmitted.Items) = %d, want 1", len(onlySubmitted.Items))
	}
	if onlySubmitted.Items[0].ID != ids[0] {
		t.Fatalf("onlySubmitted.Items[0].ID = %v, want %v", onlySubmitted.Items[0].ID, ids[0])
	}

	page, err := f.svc.List(ctx, ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(page.Items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].ID != ids[2] {
		t.Fatalf("page.Items[0].ID = %v, want %v", page.Items[0].ID, ids[2])
	}
	if len(page.Cursor) == 0 {
		t.Fatal("page.Cursor is empty")
	}

	next, err := f.svc.List(ctx, ListParams{Limit: 2, Cursor: page.Cursor})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next.Items) != 1 {
		t.Fatalf("len(next.Items) = %d, want 1", len(next.Items))
	}
	if next.Items[0].ID != ids[0] {
		t.Fatalf("next.Items[0].ID = %v, want %v", next.Items[0].ID, ids[0])
	}
}

// newPromotionsHook wires the real apply hook over the test database.
func newPromotionsHook(t *testing.T, conn *gorm.DB) *promotions.Hook {
	t.Helper()
	schemeSvc, err := schemes.NewService(schemes.NewRepository(conn), db.FromGorm(conn), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hook, err := promotions.NewHook(promotions.HookOptions{
		Schemes:       schemeSvc,
		Lookup:        catalog.NewRepository(conn),
		StrictLookups: true,
		Now:           func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return hook
}

func textEntries(values ...string) scope.Entries {
	out := make(scope.Entries, 0, len(values))
	for _, v := range values {
		v := v
		out = append(out, scope.Entry{Text: &v})
	}
	return out
}

func TestSubmitWithActiveSchemesEndToEnd(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()

	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = catalogSvc.UpsertItems(ctx, []catalog.ItemInput{
		{Code: "COLA", ItemGroup: strPtr("Beverages")},
		{Code: "TEA", ItemGroup: strPtr("Beverages")},
		{Code: "CHIPS", ItemGroup: strPtr("Snacks")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	schemeSvc, err := schemes.NewService(schemes.NewRepository(conn), db.FromGorm(conn), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	itemGroup := enums.ApplyOnItemGroup
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	_, err = schemeSvc.Create(ctx, schemes.SchemeInput{
		Name:           "DRINKS-BULK",
		PartySide:      enums.PartySideSelling,
		ApplyOn:        &itemGroup,
		ValidFrom:      &from,
		ValidTo:        &to,
		ValidationType: enums.PromoValidationMinimumQuantity,
		QuantitySlabs: []schemes.QuantitySlabInput{
			{MinimumQuantity: dec("10"), FreeQuantity: dec("1")},
			{MinimumQuantity: dec("20"), FreeQuantity: dec("3")},
		},
		Scope: schemes.ScopeInput{
			Customers:  textEntries("Acme"),
			ItemGroups: textEntries("Beverages"),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	notices := notifications.NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:          NewRepository(conn),
		DB:            db.FromGorm(conn),
		Hook:          newPromotionsHook(t, conn),
		Notifications: notices,
		Directory:     catalogSvc,
		Now:           func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft, err := svc.Create(ctx, salesInput(
		ItemInput{ItemCode: "COLA", Qty: dec("25"), Rate: dec("1")},
		ItemInput{ItemCode: "CHIPS", Qty: dec("50"), Rate: dec("2")},
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := svc.Submit(ctx, draft.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Invoice.Items) != 4 {
		t.Fatalf("len(res.Invoice.Items) = %d, want 4", len(res.Invoice.Items))
	}
	free := res.Invoice.Items[2:]
	for i, qty := range []string{"1", "3"} {
		if free[i].ItemCode != "COLA" {
			t.Fatalf("free[i].ItemCode = %v, want %v", free[i].ItemCode, "COLA")
		}
		if !free[i].IsFreeItem {
			t.Fatal("free[i].IsFreeItem = false, want true")
		}
		assertDecimal(t, qty, free[i].Qty)
		if free[i].Idx != i+3 {
			t.Fatalf("free[i].Idx = %v, want %v", free[i].Idx, i+3)
		}
	}
	assertDecimal(t, "125", res.Invoice.GrandTotal)
	if len(res.Notices) != 2 {
		t.Fatalf("len(res.Notices) = %d, want 2", len(res.Notices))
	}
	if res.Notices[0].Message != "Free Quantity (1) added for scheme 'DRINKS-BULK'." {
		t.Fatalf("res.Notices[0].Message = %v, want %v", res.Notices[0].Message, "Free Quantity (1) added for scheme 'DRINKS-BULK'.")
	}

	list, err := notifications.NewService(notices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := list.ListForInvoice(ctx, notifications.ListParams{InvoiceID: draft.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored.Items) != 2 {
		t.Fatalf("len(stored.Items) = %d, want 2", len(stored.Items))
	}
}
