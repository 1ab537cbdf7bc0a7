package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/promoschemes/pkg/db/dbtest"
	"github.com/angelmondragon/promoschemes/pkg/db/models"
)

func strPtr(v string) *string { return &v }

func TestNewBaseStoresConnection(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	assert.Same(t, db, base.db)
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	require.NotNil(t, withCtx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	assert.Same(t, db, base.DB(nil))
}

func TestBaseWithTxRebinds(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		bound := base.WithTx(tx)
		assert.Same(t, tx, bound.db)
		return nil
	})
	require.NoError(t, err)
}

func TestPluckDistinctIn(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)
	ctx := context.Background()

	items := []models.Item{
		{Code: "COLA", ItemGroup: strPtr("Beverages")},
		{Code: "TEA", ItemGroup: strPtr("Beverages")},
		{Code: "CHIPS", ItemGroup: strPtr("Snacks")},
		{Code: "LOOSE"},
	}
	require.NoError(t, db.Create(&items).Error)

	codes, err := base.PluckDistinctIn(ctx, &models.Item{}, "code", "item_group", []string{"Beverages", "Missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"COLA", "TEA"}, codes)

	groups, err := base.PluckDistinctIn(ctx, &models.Item{}, "item_group", "code", []string{"COLA", "TEA", "LOOSE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Beverages"}, groups)

	none, err := base.PluckDistinctIn(ctx, &models.Item{}, "code", "item_group", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}
