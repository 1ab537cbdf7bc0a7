package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/promoschemes/api/responses"
	"github.com/angelmondragon/promoschemes/api/validators"
	"github.com/angelmondragon/promoschemes/internal/schemes"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/enums"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/logger"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

type schemeRequest struct {
	Name               string                `json:"name" validate:"required,max=140"`
	Title              *string               `json:"title" validate:"omitempty,max=140"`
	PartySide          string                `json:"party_side" validate:"required"`
	ApplyOn            *string               `json:"apply_on"`
	ValidFrom          *string               `json:"valid_from" validate:"omitempty,datetime=2006-01-02"`
	ValidTo            *string               `json:"valid_to" validate:"omitempty,datetime=2006-01-02"`
	ValidationType     string                `json:"validation_type" validate:"required"`
	MinimumAmount      decimal.Decimal       `json:"minimum_amount"`
	DiscountPercentage decimal.Decimal       `json:"discount_percentage"`
	MinimumQuantity    decimal.Decimal       `json:"minimum_quantity"`
	FreeQuantity       decimal.Decimal       `json:"free_quantity"`
	Scope              schemes.ScopeInput    `json:"scope"`
	QuantitySlabs      []quantitySlabRequest `json:"quantity_slabs" validate:"dive"`
	AmountOffSlabs     []amountOffRequest    `json:"amount_off_slabs" validate:"dive"`
}

type quantitySlabRequest struct {
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	FreeQuantity    decimal.Decimal `json:"free_quantity"`
	FreeProduct     *string         `json:"free_product" validate:"omitempty,max=140"`
}

type amountOffRequest struct {
	MinQty    decimal.Decimal `json:"min_qty"`
	FreeQty   decimal.Decimal `json:"free_qty"`
	AmountOff decimal.Decimal `json:"amount_off"`
}

func (req schemeRequest) toInput() (schemes.SchemeInput, error) {
	side, err := enums.ParsePartySide(req.PartySide)
	if err != nil {
		return schemes.SchemeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party_side")
	}
	policy, err := enums.ParsePromoValidation(req.ValidationType)
	if err != nil {
		return schemes.SchemeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid validation_type")
	}
	input := schemes.SchemeInput{
		Name:               req.Name,
		Title:              req.Title,
		PartySide:          side,
		ValidationType:     policy,
		MinimumAmount:      req.MinimumAmount,
		DiscountPercentage: req.DiscountPercentage,
		MinimumQuantity:    req.MinimumQuantity,
		FreeQuantity:       req.FreeQuantity,
		Scope:              req.Scope,
	}
	if req.ApplyOn != nil && strings.TrimSpace(*req.ApplyOn) != "" {
		applyOn, err := enums.ParseApplyOn(*req.ApplyOn)
		if err != nil {
			return schemes.SchemeInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid apply_on")
		}
		input.ApplyOn = &applyOn
	}
	if input.ValidFrom, err = optionalDate(req.ValidFrom); err != nil {
		return schemes.SchemeInput{}, err
	}
	if input.ValidTo, err = optionalDate(req.ValidTo); err != nil {
		return schemes.SchemeInput{}, err
	}
	for _, slab := range req.QuantitySlabs {
		input.QuantitySlabs = append(input.QuantitySlabs, schemes.QuantitySlabInput{
			MinimumQuantity: slab.MinimumQuantity,
			FreeQuantity:    slab.FreeQuantity,
			FreeProduct:     slab.FreeProduct,
		})
	}
	for _, slab := range req.AmountOffSlabs {
		input.AmountOffSlabs = append(input.AmountOffSlabs, schemes.AmountOffSlabInput{
			MinQty:    slab.MinQty,
			FreeQty:   slab.FreeQty,
			AmountOff: slab.AmountOff,
		})
	}
	return input, nil
}

func CreateScheme(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req schemeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scheme, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, scheme)
	}
}

func UpdateScheme(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "schemeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req schemeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := req.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scheme, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, scheme)
	}
}

func GetScheme(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "schemeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scheme, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, scheme)
	}
}

func DeleteScheme(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "schemeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func ListSchemes(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := schemes.ListParams{Limit: limit, Cursor: validators.QueryString(r, "cursor", 512)}
		if raw := validators.QueryString(r, "party_side", 32); raw != "" {
			side, err := enums.ParsePartySide(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party_side"))
				return
			}
			params.PartySide = &side
		}
		result, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ActiveSchemes answers which schemes are in force for a party side on a date.
// as_of defaults to today in the configured timezone.
func ActiveSchemes(svc schemes.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	if loc == nil {
		loc = time.UTC
	}
	return func(w http.ResponseWriter, r *http.Request) {
		side, err := enums.ParsePartySide(validators.QueryString(r, "party_side", 32))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid party_side"))
			return
		}
		asOf, err := validators.ParseQueryDate(r, "as_of")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date := models.DateOf(time.Now().In(loc))
		if asOf != nil {
			date = *asOf
		}
		ids, err := svc.GetActiveSchemes(r.Context(), side, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"party_side": side,
			"as_of":      date.Format(models.DateLayout),
			"ids":        ids,
		})
	}
}

func OverlappingSchemes(svc schemes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from == nil || to == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required"))
			return
		}
		rows, err := svc.ListOverlapping(r.Context(), *from, *to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func optionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	value, err := models.ParseDate(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "dates must use YYYY-MM-DD")
	}
	return &value, nil
}
