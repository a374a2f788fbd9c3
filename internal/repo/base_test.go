package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/internal/repo/sqlitetest"
)

type widget struct {
	ID   uint
	Name string
}

func TestBaseDBCarriesContext(t *testing.T) {
	conn := sqlitetest.Open(t)
	base := repo.NewBase(conn)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	scoped := base.DB(ctx)
	require.NotNil(t, scoped.Statement)
	require.Equal(t, ctx, scoped.Statement.Context)

	require.Same(t, conn, base.DB(nil))
}

func TestOptional(t *testing.T) {
	conn := sqlitetest.Open(t, &widget{})
	base := repo.NewBase(conn)
	ctx := context.Background()
	require.NoError(t, base.DB(ctx).Create(&widget{Name: "crate"}).Error)

	var found widget
	row, err := repo.Optional(&found, base.DB(ctx).Where("name = ?", "crate").Take(&found).Error)
	require.NoError(t, err)
	require.Equal(t, "crate", row.Name)

	var missing widget
	row, err = repo.Optional(&missing, base.DB(ctx).Where("name = ?", "pallet").Take(&missing).Error)
	require.NoError(t, err)
	require.Nil(t, row)

	boom := errors.New("boom")
	_, err = repo.Optional(&widget{}, boom)
	require.ErrorIs(t, err, boom)
	_, err = repo.Optional(&widget{}, gorm.ErrInvalidDB)
	require.ErrorIs(t, err, gorm.ErrInvalidDB)
}
