package notifications

import (
	"context"

	"github.com/angelmondragon/promoschemes/pkg/db/models"
	"github.com/angelmondragon/promoschemes/pkg/logger"
)

// Store persists notices. Write failures are logged and dropped.
type Store struct {
	repo Repository
	logg *logger.Logger
}

// NewStore binds a persisting sink to repo, which may be transaction-scoped.
func NewStore(repo Repository, logg *logger.Logger) *Store {
	return &Store{repo: repo, logg: logg}
}

func (s *Store) Notify(ctx context.Context, notice Notice) {
	if s == nil || s.repo == nil {
		return
	}
	row := &models.SchemeNotification{
		InvoiceID:  notice.InvoiceID,
		SchemeName: notice.SchemeName,
		Kind:       notice.Kind,
		Message:    notice.Message,
	}
	if err := s.repo.Create(ctx, row); err != nil && s.logg != nil {
		ctx = s.logg.WithField(ctx, "scheme_name", notice.SchemeName)
		s.logg.Warn(ctx, "notification.persist_failed: "+err.Error())
	}
}
