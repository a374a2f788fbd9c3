package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ShippingMethodLister reads the active shipping methods.
type ShippingMethodLister interface {
	ListActive(ctx context.Context) ([]models.ShippingMethod, error)
}

type shippingMethodResponse struct {
	ID          uuid.UUID `json:"id"`
	Carrier     string    `json:"carrier"`
	DisplayName string    `json:"display_name"`
	Price       string    `json:"price"`
}

// CheckoutShippingMethods lists the selectable shipping methods, cheapest first.
func CheckoutShippingMethods(repo ShippingMethodLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping repository unavailable"))
			return
		}

		rows, err := repo.ListActive(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipping methods"))
			return
		}

		out := make([]shippingMethodResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, shippingMethodResponse{
				ID:          row.ID,
				Carrier:     row.Carrier,
				DisplayName: row.DisplayName,
				Price:       row.Price.StringFixed(2),
			})
		}
		responses.WriteSuccess(w, map[string]any{"shipping_methods": out})
	}
}
