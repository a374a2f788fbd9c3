package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/angelmondragon/storefront-backend/pkg/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const shippingRateFixedAmount = "fixed_amount"

type sessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

// CheckoutGateway creates hosted Stripe Checkout sessions in payment mode.
type CheckoutGateway struct {
	create sessionCreator
	logg   *logger.Logger
}

// NewCheckoutGateway requires an initialized client so the global API key is set.
func NewCheckoutGateway(client *Client, logg *logger.Logger) (*CheckoutGateway, error) {
	if client == nil {
		return nil, errors.New("stripe client is required")
	}
	return &CheckoutGateway{create: session.New, logg: logg}, nil
}

// CreateSession submits the request to Stripe and returns the hosted session handle.
func (g *CheckoutGateway) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	params := sessionParams(req)
	params.Context = ctx

	sess, err := g.create(params)
	if err != nil {
		mapped := mapStripeError(err)
		if g.logg != nil {
			g.logg.Warn(g.logg.WithField(ctx, "provider", "stripe"), mapped.Error())
		}
		return nil, mapped
	}
	if sess == nil {
		return &checkout.Session{}, nil
	}
	return &checkout.Session{ID: sess.ID, URL: sess.URL}, nil
}

func sessionParams(req checkout.SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(req.AllowedCountries),
		},
		ShippingOptions: []*stripe.CheckoutSessionShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
					Type:        stripe.String(shippingRateFixedAmount),
					DisplayName: stripe.String(req.Shipping.DisplayName),
					FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(req.Shipping.Amount),
						Currency: stripe.String(req.Currency),
					},
				},
			},
		},
	}

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}

	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.AlwaysCreateCustomer {
		params.CustomerCreation = stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways))
	}
	if req.RequireBillingAddress {
		params.BillingAddressCollection = stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired))
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	return params
}

func mapStripeError(err error) *pkgerrors.Error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := pkgerrors.CodeDependency
		switch {
		case stripeErr.Type == stripe.ErrorTypeIdempotency:
			code = pkgerrors.CodeIdempotency
		case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
			code = pkgerrors.CodeUnauthorized
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests:
			code = pkgerrors.CodeRateLimit
		case stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500:
			code = pkgerrors.CodeValidation
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe create checkout session failed (%s)", stripeErr.Code))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe create checkout session failed")
}
