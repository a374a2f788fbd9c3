package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Item is one requested cart line.
type Item struct {
	ProductID uuid.UUID
	Quantity  int
}

// ValidatedItem pairs a requested line with the current catalog row.
// UnitPrice always comes from the catalog, never from the cart snapshot.
type ValidatedItem struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal is UnitPrice multiplied by Quantity.
func (v ValidatedItem) LineTotal() decimal.Decimal {
	return v.UnitPrice.Mul(decimal.NewFromInt(int64(v.Quantity)))
}

// Result holds the validated lines in input order plus their sum.
type Result struct {
	Items []ValidatedItem
	Total decimal.Decimal
}

type catalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// AvailabilityValidator re-checks cart lines against the live catalog.
type AvailabilityValidator struct {
	catalog catalog
}

func NewAvailabilityValidator(c catalog) (*AvailabilityValidator, error) {
	if c == nil {
		return nil, errors.New("product catalog is required")
	}
	return &AvailabilityValidator{catalog: c}, nil
}

// ValidateCartProducts confirms each product exists, is active and has stock for the
// quantity requested across all of its lines. Products with no stock tracking are
// always available.
func (v *AvailabilityValidator) ValidateCartProducts(ctx context.Context, items []Item) (Result, error) {
	ids := make([]uuid.UUID, 0, len(items))
	requested := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for product %s must be at least 1", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID.String(), "quantity": item.Quantity})
		}
		ids = append(ids, item.ProductID)
		requested[item.ProductID] += item.Quantity
	}

	rows, err := v.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("loading products: %w", err)
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	out := Result{Items: make([]ValidatedItem, 0, len(items)), Total: decimal.Zero}
	for _, item := range items {
		row, ok := byID[item.ProductID]
		if !ok || !row.IsActive {
			return Result{}, pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("product %s is no longer available", item.ProductID)).
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		if row.Stock != nil && *row.Stock < requested[item.ProductID] {
			return Result{}, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("only %d of %s left in stock", max(*row.Stock, 0), row.Name)).
				WithDetails(map[string]any{
					"product_id": item.ProductID.String(),
					"requested":  requested[item.ProductID],
					"available":  max(*row.Stock, 0),
				})
		}
		validated := ValidatedItem{
			ProductID: row.ID,
			Name:      row.Name,
			UnitPrice: row.Price,
			Quantity:  item.Quantity,
		}
		out.Items = append(out.Items, validated)
		out.Total = out.Total.Add(validated.LineTotal())
	}
	return out, nil
}
