package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/address"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type sessionCreator interface {
	CreateSession(ctx context.Context, input checkoutsvc.CreateSessionInput) (*pkgcheckout.Session, error)
}

// CheckoutCreateSession opens a hosted payment session for the acting shopper's cart.
func CheckoutCreateSession(svc sessionCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload createSessionRequest
		if err := validators.DecodeJSONBody(w, r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		shipping := payload.ShippingAddress.toAddress()
		billing := payload.BillingAddress.toAddress()
		if payload.BillingSameAsShipping {
			billing = shipping
		}

		session, err := svc.CreateSession(ctx, checkoutsvc.CreateSessionInput{
			Identity:         middleware.IdentityFromContext(ctx),
			Locale:           payload.Locale,
			ShippingAddress:  shipping,
			BillingAddress:   billing,
			ShippingMethodID: payload.ShippingMethodID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, createSessionResponse{
			SessionID:  session.ID,
			SessionURL: session.URL,
		})
	}
}

// Address checks happen in the service so failures carry the checkout error codes.
type createSessionRequest struct {
	Locale                string          `json:"locale" validate:"omitempty,max=5"`
	ShippingAddress       *addressPayload `json:"shipping_address"`
	BillingAddress        *addressPayload `json:"billing_address,omitempty"`
	BillingSameAsShipping bool            `json:"billing_same_as_shipping"`
	ShippingMethodID      string          `json:"shipping_method_id"`
}

type addressPayload struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Line1       string     `json:"line1"`
	Line2       string     `json:"line2"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	CountryCode string     `json:"country_code"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
}

func (p *addressPayload) toAddress() address.Address {
	if p == nil {
		return nil
	}
	if p.ID != nil {
		return address.PersistedAddress{ID: *p.ID}
	}
	return address.UnsavedAddress{Fields: address.Fields{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Line1:       p.Line1,
		Line2:       p.Line2,
		City:        p.City,
		PostalCode:  p.PostalCode,
		CountryCode: p.CountryCode,
		Phone:       p.Phone,
		Email:       p.Email,
	}}
}

type createSessionResponse struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}
