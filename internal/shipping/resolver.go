package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Method is a resolved, selectable shipping rate.
type Method struct {
	ID          uuid.UUID
	Carrier     string
	DisplayName string
	Price       decimal.Decimal
}

type finder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error)
}

// Resolver looks up shipping methods chosen at checkout.
type Resolver struct {
	finder finder
}

func NewResolver(f finder) (*Resolver, error) {
	if f == nil {
		return nil, errors.New("shipping method finder is required")
	}
	return &Resolver{finder: f}, nil
}

// Resolve returns the active method for id. It never writes.
func (r *Resolver) Resolve(ctx context.Context, id string) (Method, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return Method{}, pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "please choose a shipping method")
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return Method{}, invalidMethod(trimmed)
	}

	row, err := r.finder.FindByID(ctx, parsed)
	if err != nil {
		return Method{}, fmt.Errorf("loading shipping method: %w", err)
	}
	if row == nil || !row.IsActive {
		return Method{}, invalidMethod(trimmed)
	}
	if row.Price.IsNegative() {
		return Method{}, fmt.Errorf("shipping method %s has negative price %s", row.ID, row.Price)
	}

	return Method{
		ID:          row.ID,
		Carrier:     row.Carrier,
		DisplayName: row.DisplayName,
		Price:       row.Price,
	}, nil
}

func invalidMethod(id string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "the selected shipping method is not available").
		WithDetails(map[string]any{"shipping_method_id": id})
}
