package checkout

import "context"

// LineItem is a single priced row of a hosted payment session. Amounts are in minor units.
type LineItem struct {
	Name       string `validate:"required"`
	UnitAmount int64  `validate:"gte=0"`
	Quantity   int64  `validate:"gte=1"`
}

// ShippingOption is the single fixed-amount shipping rate offered on the session.
type ShippingOption struct {
	DisplayName string `validate:"required"`
	Amount      int64  `validate:"gte=0"`
}

// SessionRequest is the provider-neutral description of a hosted payment session.
type SessionRequest struct {
	Currency              string     `validate:"required,len=3,lowercase"`
	LineItems             []LineItem `validate:"required,min=1,dive"`
	Shipping              ShippingOption
	AllowedCountries      []string          `validate:"required,min=1,dive,iso3166_1_alpha2"`
	Metadata              map[string]string `validate:"required"`
	SuccessURL            string            `validate:"required,url"`
	CancelURL             string            `validate:"required,url"`
	CustomerEmail         string            `validate:"omitempty,email"`
	AlwaysCreateCustomer  bool
	RequireBillingAddress bool
	// IdempotencyKey is forwarded to the provider when set.
	IdempotencyKey string
}

// Session is the handle returned by a payment gateway.
type Session struct {
	ID  string
	URL string
}

// Gateway creates hosted checkout sessions at an external payment provider.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}

// Metadata keys attached to every session.
const (
	MetadataCartID            = "cartId"
	MetadataUserID            = "userId"
	MetadataShippingAddressID = "shippingAddressId"
	MetadataBillingAddressID  = "billingAddressId"
	MetadataShippingMethodID  = "shippingMethodId"

	GuestUserID = "guest"

	// SessionIDPlaceholder is substituted by the provider on redirect.
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"
)
