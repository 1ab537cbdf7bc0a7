package controllers

import (
	"net/http"

	"github.com/angelmondragon/promoschemes/api/responses"
	"github.com/angelmondragon/promoschemes/api/validators"
	"github.com/angelmondragon/promoschemes/internal/notifications"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// ListInvoiceNotifications returns the persisted scheme notices of an invoice.
func ListInvoiceNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		invoiceID, err := validators.ParseUUIDParam(r, "invoiceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.ListForInvoice(r.Context(), notifications.ListParams{
			InvoiceID: invoiceID,
			Limit:     limit,
			Cursor:    validators.QueryString(r, "cursor", 512),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
