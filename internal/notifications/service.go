package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	pkgerrors "github.com/angelmondragon/promoschemes/pkg/errors"
	"github.com/angelmondragon/promoschemes/pkg/pagination"
)

// Service reads persisted scheme notifications.
type Service interface {
	ListForInvoice(ctx context.Context, params ListParams) (*ListResult, error)
}

type service struct {
	repo Repository
}

// ListParams configures pagination for an invoice's notifications.
type ListParams struct {
	InvoiceID uuid.UUID
	Limit     int
	Cursor    string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.SchemeNotification `json:"items"`
	Cursor string                      `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForInvoice(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.InvoiceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}

	query := listParams{
		InvoiceID: params.InvoiceID,
		Limit:     params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListForInvoice(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	if rows == nil {
		rows = []models.SchemeNotification{}
	}

	return &ListResult{
		Items:  rows,
		Cursor: pagination.Next(next),
	}, nil
}
