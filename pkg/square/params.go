package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentLinkLineItem is an ad-hoc order line priced in minor units.
type PaymentLinkLineItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// PaymentLinkParams describes a hosted checkout page for a one-off order.
type PaymentLinkParams struct {
	LocationID            string
	ReferenceID           string
	Currency              string
	LineItems             []PaymentLinkLineItem
	ShippingName          string
	ShippingAmount        int64
	RedirectURL           string
	BuyerEmail            string
	AskForShippingAddress bool
	PaymentNote           string
	IdempotencyKey        string
}

func (p PaymentLinkParams) toSquareRequest(idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	order := &sq.Order{
		LocationID: p.LocationID,
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		order.ReferenceID = ptrString(trimmed)
	}
	for _, item := range p.LineItems {
		order.LineItems = append(order.LineItems, &sq.OrderLineItem{
			Name:           ptrString(item.Name),
			Quantity:       strconv.FormatInt(item.Quantity, 10),
			BasePriceMoney: moneyPtr(item.UnitAmount, p.Currency),
		})
	}

	options := &sq.CheckoutOptions{
		AskForShippingAddress: boolPtr(p.AskForShippingAddress),
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		options.RedirectURL = ptrString(trimmed)
	}
	if p.ShippingAmount > 0 {
		options.ShippingFee = &sq.ShippingFee{
			Name:   ptrString(p.ShippingName),
			Charge: moneyPtr(p.ShippingAmount, p.Currency),
		}
	}

	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey:  ptrString(idempotencyKey),
		Order:           order,
		CheckoutOptions: options,
	}
	if trimmed := strings.TrimSpace(p.PaymentNote); trimmed != "" {
		req.PaymentNote = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.BuyerEmail); trimmed != "" {
		req.PrePopulatedData = &sq.PrePopulatedData{BuyerEmail: ptrString(trimmed)}
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "EUR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
