package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/viewcache"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const addressesViewTTL = 10 * time.Minute

// AddressLister reads a user's saved addresses.
type AddressLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

// ViewStore caches rendered views by tag.
type ViewStore interface {
	Load(ctx context.Context, tag string, dst any) (bool, error)
	Store(ctx context.Context, tag string, value any, ttl time.Duration) error
}

type addressResponse struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Line1       string    `json:"line1"`
	Line2       string    `json:"line2,omitempty"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	CountryCode string    `json:"country_code"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	IsDefault   bool      `json:"is_default"`
}

// AccountAddresses lists the signed-in shopper's saved addresses. The rendered list is cached
// under the account addresses view tag, which checkout invalidates after saving new rows.
func AccountAddresses(repo AddressLister, views ViewStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address repository unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(ctx)
		if identity.IsGuest() {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
			return
		}
		tag := viewcache.AddressesTag(*identity.UserID)

		if views != nil {
			var cached []addressResponse
			hit, err := views.Load(ctx, tag, &cached)
			if err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "addresses.view_load_failed")
			}
			if hit {
				responses.WriteSuccess(w, map[string]any{"addresses": cached})
				return
			}
		}

		rows, err := repo.ListByUser(ctx, *identity.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses"))
			return
		}

		out := make([]addressResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, newAddressResponse(row))
		}

		if views != nil {
			if err := views.Store(ctx, tag, out, addressesViewTTL); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "addresses.view_store_failed")
			}
		}

		responses.WriteSuccess(w, map[string]any{"addresses": out})
	}
}

func newAddressResponse(row models.Address) addressResponse {
	return addressResponse{
		ID:          row.ID,
		Type:        string(row.Type),
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		Line1:       row.Line1,
		Line2:       deref(row.Line2),
		City:        row.City,
		PostalCode:  row.PostalCode,
		CountryCode: row.CountryCode,
		Phone:       deref(row.Phone),
		Email:       deref(row.Email),
		IsDefault:   row.IsDefault,
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
