package shipping

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/repo/sqlitetest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubFinder struct {
	row   *models.ShippingMethod
	err   error
	calls int
}

func (s *stubFinder) FindByID(context.Context, uuid.UUID) (*models.ShippingMethod, error) {
	s.calls++
	return s.row, s.err
}

func TestResolve_ReturnsActiveMethod(t *testing.T) {
	row := &models.ShippingMethod{ID: uuid.New(), Carrier: "dhl", DisplayName: "DHL Standard", Price: decimal.RequireFromString("5.99"), IsActive: true}
	r, err := NewResolver(&stubFinder{row: row})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	method, err := r.Resolve(context.Background(), " "+row.ID.String()+" ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method.ID != row.ID || method.DisplayName != "DHL Standard" || !method.Price.Equal(row.Price) {
		t.Fatalf("unexpected method %+v", method)
	}
}

func TestResolve_InvalidInputs(t *testing.T) {
	inactive := &models.ShippingMethod{ID: uuid.New(), Price: decimal.NewFromInt(1), IsActive: false}

	cases := map[string]struct {
		finder *stubFinder
		id     string
		lookup bool
	}{
		"blank":     {finder: &stubFinder{}, id: "   "},
		"not uuid":  {finder: &stubFinder{}, id: "express"},
		"not found": {finder: &stubFinder{}, id: uuid.NewString(), lookup: true},
		"inactive":  {finder: &stubFinder{row: inactive}, id: inactive.ID.String(), lookup: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r, _ := NewResolver(tc.finder)
			_, err := r.Resolve(context.Background(), tc.id)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeInvalidShippingMethod {
				t.Fatalf("expected invalid shipping method, got %v", err)
			}
			if tc.lookup != (tc.finder.calls == 1) {
				t.Fatalf("unexpected lookup count %d", tc.finder.calls)
			}
		})
	}
}

func TestResolve_FinderFailureIsUnexpected(t *testing.T) {
	boom := errors.New("timeout")
	r, _ := NewResolver(&stubFinder{err: boom})

	_, err := r.Resolve(context.Background(), uuid.NewString())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if pkgerrors.As(err) != nil {
		t.Fatal("finder failures must not carry a checkout code")
	}
}

func TestRepository_FindAndList(t *testing.T) {
	db := sqlitetest.Open(t, &models.ShippingMethod{})
	repository := NewRepository(db)
	ctx := context.Background()

	express := &models.ShippingMethod{Carrier: "ups", DisplayName: "UPS Express", Price: decimal.RequireFromString("14.90"), IsActive: true}
	standard := &models.ShippingMethod{Carrier: "dhl", DisplayName: "DHL Standard", Price: decimal.RequireFromString("5.99"), IsActive: true}
	require.NoError(t, db.Create(express).Error)
	require.NoError(t, db.Create(standard).Error)
	require.NoError(t, db.Model(&models.ShippingMethod{}).Where("id = ?", express.ID).Update("is_active", false).Error)

	found, err := repository.FindByID(ctx, standard.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, "DHL Standard", found.DisplayName)

	missing, err := repository.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	active, err := repository.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, standard.ID, active[0].ID)

	r, err := NewResolver(repository)
	require.NoError(t, err)
	_, err = r.Resolve(ctx, express.ID.String())
	require.Equal(t, pkgerrors.CodeInvalidShippingMethod, pkgerrors.As(err).Code())
}
