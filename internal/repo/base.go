package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx returns a Base bound to the provided transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// PluckDistinctIn returns the distinct non-empty values of column for rows whose
// filterColumn is one of values, sorted ascending. No values means no rows.
func (b Base) PluckDistinctIn(ctx context.Context, model any, column, filterColumn string, values []string) ([]string, error) {
	if len(values) == 0 {
		return []string{}, nil
	}
	var out []string
	err := b.DB(ctx).
		Model(model).
		Distinct().
		Where(filterColumn+" IN ?", values).
		Where(column+" IS NOT NULL AND "+column+" <> ''").
		Order(column+" ASC").
		Pluck(column, &out).
		Error
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
