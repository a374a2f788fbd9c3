package square

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	sq "github.com/square/square-go-sdk"

	"github.com/angelmondragon/storefront-backend/pkg/checkout"
)

type paymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (*sq.PaymentLink, error)
}

// CheckoutGateway creates hosted checkout sessions as Square payment links.
type CheckoutGateway struct {
	links paymentLinkCreator
}

// NewCheckoutGateway wires the payment link client into the checkout gateway contract.
func NewCheckoutGateway(client *Client) (*CheckoutGateway, error) {
	if client == nil {
		return nil, errors.New("square client is required")
	}
	return &CheckoutGateway{links: client}, nil
}

// CreateSession maps the session request onto an ad-hoc order payment link.
func (g *CheckoutGateway) CreateSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	link, err := g.links.CreatePaymentLink(ctx, paymentLinkParamsFromSession(req))
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &checkout.Session{}, nil
	}
	return &checkout.Session{
		ID:  deref(link.GetID()),
		URL: deref(link.GetURL()),
	}, nil
}

func paymentLinkParamsFromSession(req checkout.SessionRequest) PaymentLinkParams {
	items := make([]PaymentLinkLineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, PaymentLinkLineItem{
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   item.Quantity,
		})
	}
	return PaymentLinkParams{
		ReferenceID:           req.Metadata[checkout.MetadataCartID],
		Currency:              req.Currency,
		LineItems:             items,
		ShippingName:          req.Shipping.DisplayName,
		ShippingAmount:        req.Shipping.Amount,
		RedirectURL:           withoutSessionPlaceholder(req.SuccessURL),
		BuyerEmail:            req.CustomerEmail,
		AskForShippingAddress: true,
		PaymentNote:           metadataNote(req.Metadata),
		IdempotencyKey:        req.IdempotencyKey,
	}
}

// withoutSessionPlaceholder drops query parameters carrying the session placeholder;
// Square appends its own checkout and order ids on redirect.
func withoutSessionPlaceholder(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	for key, values := range query {
		for _, v := range values {
			if v == checkout.SessionIDPlaceholder {
				query.Del(key)
				break
			}
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func metadataNote(metadata map[string]string) string {
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, metadata[k]))
	}
	return strings.Join(parts, "; ")
}
