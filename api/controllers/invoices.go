package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/api/responses"
	"github.com/angelmondragon/promoschemes/api/validators"
	"github.com/angelmondragon/promoschemes/internal/invoices"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

type invoiceRequest struct {
	Name          string               `json:"name" validate:"omitempty,max=140"`
	Kind          string               `json:"kind" validate:"required"`
	Customer      *string              `json:"customer" validate:"omitempty,max=140"`
	CustomerGroup *string              `json:"customer_group" validate:"omitempty,max=140"`
	Territory     *string              `json:"territory" validate:"omitempty,max=140"`
	Supplier      *string              `json:"supplier" validate:"omitempty,max=140"`
	SupplierGroup *string              `json:"supplier_group" validate:"omitempty,max=140"`
	PostingDate   *string              `json:"posting_date" validate:"omitempty,datetime=2006-01-02"`
	Items         []invoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

type invoiceItemRequest struct {
	ItemCode  string           `json:"item_code" validate:"required,max=140"`
	ItemName  *string          `json:"item_name" validate:"omitempty,max=140"`
	Qty       decimal.Decimal  `json:"qty"`
	Rate      decimal.Decimal  `json:"rate"`
	NetAmount *decimal.Decimal `json:"net_amount"`
}

func CreateInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req invoiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseInvoiceKind(req.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
			return
		}
		postingDate, err := optionalDate(req.PostingDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := invoices.CreateInput{
			Name:          req.Name,
			Kind:          kind,
			Customer:      req.Customer,
			CustomerGroup: req.CustomerGroup,
			Territory:     req.Territory,
			Supplier:      req.Supplier,
			SupplierGroup: req.SupplierGroup,
			PostingDate:   postingDate,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, invoices.ItemInput{
				ItemCode:  item.ItemCode,
				ItemName:  item.ItemName,
				Qty:       item.Qty,
				Rate:      item.Rate,
				NetAmount: item.NetAmount,
			})
		}
		invoice, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func GetInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}

func ListInvoices(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := invoices.ListParams{Limit: limit, Cursor: validators.QueryString(r, "cursor", 512)}
		if raw := validators.QueryString(r, "kind", 32); raw != "" {
			kind, err := enums.ParseInvoiceKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind"))
				return
			}
			params.Kind = &kind
		}
		if r.URL.Query().Has("docstatus") {
			raw, err := validators.ParseQueryInt(r, "docstatus", 0, int(enums.DocStatusDraft), int(enums.DocStatusCancelled))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			status := enums.DocStatus(raw)
			params.DocStatus = &status
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// SubmitInvoice finalizes a draft; the response carries the scheme notices.
func SubmitInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Submit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CancelInvoice(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Cancel(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
