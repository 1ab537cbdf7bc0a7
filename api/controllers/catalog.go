package controllers

import (
	"net/http"

	"github.com/angelmondragon/promoschemes/api/responses"
	"github.com/angelmondragon/promoschemes/api/validators"
	"github.com/angelmondragon/promoschemes/internal/catalog"
	"github.com/angelmondragon/promoschemes/pkg/logger"
)

type itemsRequest struct {
	Items []struct {
		Code      string  `json:"code" validate:"required,max=140"`
		ItemName  *string `json:"item_name" validate:"omitempty,max=140"`
		ItemGroup *string `json:"item_group" validate:"omitempty,max=140"`
	} `json:"items" validate:"required,min=1,dive"`
}

type customersRequest struct {
	Customers []struct {
		Name          string  `json:"name" validate:"required,max=140"`
		CustomerGroup *string `json:"customer_group" validate:"omitempty,max=140"`
		Territory     *string `json:"territory" validate:"omitempty,max=140"`
	} `json:"customers" validate:"required,min=1,dive"`
}

type suppliersRequest struct {
	Suppliers []struct {
		Name          string  `json:"name" validate:"required,max=140"`
		SupplierGroup *string `json:"supplier_group" validate:"omitempty,max=140"`
	} `json:"suppliers" validate:"required,min=1,dive"`
}

func UpsertItems(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]catalog.ItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			inputs = append(inputs, catalog.ItemInput{Code: item.Code, ItemName: item.ItemName, ItemGroup: item.ItemGroup})
		}
		n, err := svc.UpsertItems(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"upserted": n})
	}
}

func UpsertCustomers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req customersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]catalog.CustomerInput, 0, len(req.Customers))
		for _, c := range req.Customers {
			inputs = append(inputs, catalog.CustomerInput{Name: c.Name, CustomerGroup: c.CustomerGroup, Territory: c.Territory})
		}
		n, err := svc.UpsertCustomers(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"upserted": n})
	}
}

func UpsertSuppliers(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suppliersRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inputs := make([]catalog.SupplierInput, 0, len(req.Suppliers))
		for _, s := range req.Suppliers {
			inputs = append(inputs, catalog.SupplierInput{Name: s.Name, SupplierGroup: s.SupplierGroup})
		}
		n, err := svc.UpsertSuppliers(r.Context(), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"upserted": n})
	}
}
