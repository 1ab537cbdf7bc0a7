package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/promoschemes/internal/catalog"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
)

type testCatalogService struct {
	items     []catalog.ItemInput
	customers []catalog.CustomerInput
	suppliers []catalog.SupplierInput
	err       error
}

func (s *testCatalogService) UpsertItems(ctx context.Context, inputs []catalog.ItemInput) (int, error) {
	s.items = inputs
	return len(inputs), s.err
}

func (s *testCatalogService) UpsertCustomers(ctx context.Context, inputs []catalog.CustomerInput) (int, error) {
	s.customers = inputs
	return len(inputs), s.err
}

func (s *testCatalogService) UpsertSuppliers(ctx context.Context, inputs []catalog.SupplierInput) (int, error) {
	s.suppliers = inputs
	return len(inputs), s.err
}

func (s *testCatalogService) GetItem(ctx context.Context, code string) (*models.Item, error) {
	return nil, nil
}

func (s *testCatalogService) GetCustomer(ctx context.Context, name string) (*models.Customer, error) {
	return nil, nil
}

func (s *testCatalogService) GetSupplier(ctx context.Context, name string) (*models.Supplier, error) {
	return nil, nil
}

func TestUpsertItems(t *testing.T) {
	svc := &testCatalogService{}
	body := `{"items":[{"code":"COLA","item_group":"Beverages"},{"code":"CHIPS","item_name":"Chips"}]}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/items", strings.NewReader(body))
	resp := httptest.NewRecorder()
	UpsertItems(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if len(svc.items) != 2 || svc.items[0].Code != "COLA" || *svc.items[0].ItemGroup != "Beverages" {
		t.Fatalf("unexpected items %+v", svc.items)
	}
	var data map[string]int
	decodeData(t, resp, &data)
	if data["upserted"] != 2 {
		t.Fatalf("expected upserted=2 got %v", data["upserted"])
	}
}

func TestUpsertCustomersAndSuppliers(t *testing.T) {
	svc := &testCatalogService{}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/customers",
		strings.NewReader(`{"customers":[{"name":"Acme","customer_group":"Retail","territory":"North"}]}`))
	resp := httptest.NewRecorder()
	UpsertCustomers(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("customers: expected 200 got %d", resp.Code)
	}
	if len(svc.customers) != 1 || *svc.customers[0].Territory != "North" {
		t.Fatalf("unexpected customers %+v", svc.customers)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/catalog/suppliers",
		strings.NewReader(`{"suppliers":[{"name":"Bottler","supplier_group":"Drinks"}]}`))
	resp = httptest.NewRecorder()
	UpsertSuppliers(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("suppliers: expected 200 got %d", resp.Code)
	}
	if len(svc.suppliers) != 1 || *svc.suppliers[0].SupplierGroup != "Drinks" {
		t.Fatalf("unexpected suppliers %+v", svc.suppliers)
	}
}

func TestUpsertItemsValidation(t *testing.T) {
	for name, body := range map[string]string{
		"empty":        `{"items":[]}`,
		"missing code": `{"items":[{"item_group":"Beverages"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := &testCatalogService{}
			req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/items", strings.NewReader(body))
			resp := httptest.NewRecorder()
			UpsertItems(svc, testLogger())(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 got %d", resp.Code)
			}
			if svc.items != nil {
				t.Fatal("service should not be called")
			}
		})
	}
}

func TestUpsertItemsUntrustedError(t *testing.T) {
	svc := &testCatalogService{err: errors.New("db gone")}
	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/items", strings.NewReader(`{"items":[{"code":"COLA"}]}`))
	resp := httptest.NewRecorder()
	UpsertItems(svc, testLogger())(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
