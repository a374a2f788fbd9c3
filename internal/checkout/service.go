package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/address"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/viewcache"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	outcomeSuccess = "success"

	attemptCounterTTL = 24 * time.Hour

	unexpectedMessage = "an unexpected error occurred during checkout"
)

var localePattern = regexp.MustCompile(`^[a-z]{2}(-[a-z]{2})?$`)

type cartLoader interface {
	FindActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindActiveForGuest(ctx context.Context, guestToken string) (*models.Cart, error)
}

type addressValidator interface {
	ValidateAndProcess(ctx context.Context, shipping, billing address.Address, userID *uuid.UUID, opts address.Options) (address.Processed, error)
}

type productValidator interface {
	ValidateCartProducts(ctx context.Context, items []product.Item) (product.Result, error)
}

type shippingResolver interface {
	Resolve(ctx context.Context, id string) (shipping.Method, error)
}

type viewInvalidator interface {
	InvalidateAsync(ctx context.Context, tags ...string) <-chan struct{}
}

type attemptCounter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(name string) string
}

// Service builds hosted payment sessions from the acting shopper's cart.
type Service interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*pkgcheckout.Session, error)
}

// CreateSessionInput is everything a checkout attempt needs besides the stored cart.
type CreateSessionInput struct {
	Identity         auth.Identity
	Locale           string
	ShippingAddress  address.Address
	BillingAddress   address.Address
	ShippingMethodID string
}

// Options holds the storefront-wide checkout settings.
type Options struct {
	Currency         string
	AllowedCountries []string
	AllowGuest       bool
	BaseURL          string
	DefaultLocale    string
	// Idempotency derives a per-attempt gateway idempotency key from the cart id.
	Idempotency bool
}

// Deps are the collaborators of the checkout service. Counter is optional.
type Deps struct {
	Carts     cartLoader
	Addresses addressValidator
	Products  productValidator
	Shipping  shippingResolver
	Gateway   pkgcheckout.Gateway
	Views     viewInvalidator
	Counter   attemptCounter
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

type service struct {
	carts     cartLoader
	addresses addressValidator
	products  productValidator
	shipping  shippingResolver
	gateway   pkgcheckout.Gateway
	views     viewInvalidator
	counter   attemptCounter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	opts      Options
}

// NewService builds the checkout service.
func NewService(deps Deps, opts Options) (Service, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart loader required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("address validator required")
	}
	if deps.Products == nil {
		return nil, errors.New("product validator required")
	}
	if deps.Shipping == nil {
		return nil, errors.New("shipping resolver required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	if deps.Views == nil {
		return nil, errors.New("view invalidator required")
	}
	if deps.Logger == nil {
		return nil, errors.New("logger required")
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("storefront base url required")
	}
	if len(opts.AllowedCountries) == 0 {
		return nil, errors.New("at least one allowed country required")
	}
	opts.Currency = strings.ToLower(strings.TrimSpace(opts.Currency))
	if opts.Currency == "" {
		opts.Currency = "eur"
	}
	opts.BaseURL = strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	opts.DefaultLocale = normalizeLocale(opts.DefaultLocale, "en")

	return &service{
		carts:     deps.Carts,
		addresses: deps.Addresses,
		products:  deps.Products,
		shipping:  deps.Shipping,
		gateway:   deps.Gateway,
		views:     deps.Views,
		counter:   deps.Counter,
		metrics:   deps.Metrics,
		logg:      deps.Logger,
		opts:      opts,
	}, nil
}

// CreateSession validates the cart, addresses and shipping method in that order, stopping
// at the first failure, and asks the gateway for a session. Returned errors always carry
// a business code or CodeUnexpected.
func (s *service) CreateSession(ctx context.Context, input CreateSessionInput) (*pkgcheckout.Session, error) {
	started := time.Now()
	ctx = s.withIdentity(ctx, input.Identity)
	s.logg.Info(ctx, "checkout.start")

	session, processed, err := s.run(ctx, input)

	s.invalidate(ctx, input.Identity, processed, err == nil)

	if err != nil {
		err = s.classify(ctx, err)
		s.metrics.ObserveAttempt(strings.ToLower(string(pkgerrors.As(err).Code())), time.Since(started))
		return nil, err
	}

	s.metrics.ObserveAttempt(outcomeSuccess, time.Since(started))
	s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "checkout.session_created")
	return session, nil
}

func (s *service) run(ctx context.Context, input CreateSessionInput) (*pkgcheckout.Session, address.Processed, error) {
	var processed address.Processed

	if input.ShippingAddress == nil || input.BillingAddress == nil {
		return nil, processed, pkgerrors.New(pkgerrors.CodeInvalidAddress, "shipping and billing addresses are required")
	}
	if strings.TrimSpace(input.ShippingMethodID) == "" {
		return nil, processed, pkgerrors.New(pkgerrors.CodeInvalidShippingMethod, "please choose a shipping method")
	}

	cart, err := s.loadCart(ctx, input.Identity)
	if err != nil {
		return nil, processed, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, processed, pkgerrors.New(pkgerrors.CodeEmptyCart, "your cart is empty")
	}
	ctx = s.logg.WithCart(ctx, cart.ID.String())

	processed, err = s.addresses.ValidateAndProcess(ctx, input.ShippingAddress, input.BillingAddress, input.Identity.UserID, address.Options{
		AllowGuestAddresses: s.opts.AllowGuest,
		AllowedCountries:    s.opts.AllowedCountries,
	})
	if err != nil {
		return nil, processed, err
	}

	items := make([]product.Item, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, product.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	validated, err := s.products.ValidateCartProducts(ctx, items)
	if err != nil {
		return nil, processed, err
	}

	method, err := s.shipping.Resolve(ctx, input.ShippingMethodID)
	if err != nil {
		return nil, processed, err
	}

	req := s.buildRequest(ctx, cart, input, processed, validated, method)
	if err := req.Validate(); err != nil {
		return nil, processed, fmt.Errorf("assembled session request is invalid: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, req)
	if err != nil {
		return nil, processed, fmt.Errorf("creating payment session: %w", err)
	}
	if session == nil || strings.TrimSpace(session.ID) == "" || strings.TrimSpace(session.URL) == "" {
		return nil, processed, pkgerrors.New(pkgerrors.CodePaymentSessionFailed, "we could not start the payment, please try again")
	}
	return session, processed, nil
}

func (s *service) loadCart(ctx context.Context, identity auth.Identity) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)
	if identity.IsGuest() {
		cart, err = s.carts.FindActiveForGuest(ctx, identity.GuestSession)
	} else {
		cart, err = s.carts.FindActiveForUser(ctx, *identity.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}
	return cart, nil
}

func (s *service) buildRequest(ctx context.Context, cart *models.Cart, input CreateSessionInput, processed address.Processed, validated product.Result, method shipping.Method) pkgcheckout.SessionRequest {
	lineItems := make([]pkgcheckout.LineItem, 0, len(validated.Items))
	for _, item := range validated.Items {
		lineItems = append(lineItems, pkgcheckout.LineItem{
			Name:       item.Name,
			UnitAmount: pkgcheckout.ToMinorUnits(item.UnitPrice),
			Quantity:   int64(item.Quantity),
		})
	}

	userID := pkgcheckout.GuestUserID
	if !input.Identity.IsGuest() {
		userID = input.Identity.UserID.String()
	}

	locale := normalizeLocale(input.Locale, s.opts.DefaultLocale)
	req := pkgcheckout.SessionRequest{
		Currency:  s.opts.Currency,
		LineItems: lineItems,
		Shipping: pkgcheckout.ShippingOption{
			DisplayName: method.DisplayName,
			Amount:      pkgcheckout.ToMinorUnits(method.Price),
		},
		AllowedCountries: s.opts.AllowedCountries,
		Metadata: map[string]string{
			pkgcheckout.MetadataCartID:            cart.ID.String(),
			pkgcheckout.MetadataUserID:            userID,
			pkgcheckout.MetadataShippingAddressID: processed.ShippingAddressID,
			pkgcheckout.MetadataBillingAddressID:  processed.BillingAddressID,
			pkgcheckout.MetadataShippingMethodID:  method.ID.String(),
		},
		SuccessURL: fmt.Sprintf("%s/%s/checkout/success?session_id=%s", s.opts.BaseURL, locale, pkgcheckout.SessionIDPlaceholder),
		CancelURL:  fmt.Sprintf("%s/%s/checkout?session_id=%s", s.opts.BaseURL, locale, pkgcheckout.SessionIDPlaceholder),
	}

	if input.Identity.IsGuest() {
		req.AlwaysCreateCustomer = true
		req.RequireBillingAddress = true
	} else {
		req.CustomerEmail = input.Identity.Email
	}

	req.IdempotencyKey = s.idempotencyKey(ctx, cart.ID)
	return req
}

// idempotencyKey returns "" when disabled or when the attempt counter is unavailable.
func (s *service) idempotencyKey(ctx context.Context, cartID uuid.UUID) string {
	if !s.opts.Idempotency || s.counter == nil {
		return ""
	}
	attempt, err := s.counter.IncrWithTTL(ctx, s.counter.CounterKey("checkout_attempt:"+cartID.String()), attemptCounterTTL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.attempt_counter_unavailable")
		return ""
	}
	return fmt.Sprintf("checkout-%s-%d", cartID, attempt)
}

func (s *service) invalidate(ctx context.Context, identity auth.Identity, processed address.Processed, succeeded bool) {
	var tags []string
	if processed.Persisted && !identity.IsGuest() {
		tags = append(tags, viewcache.AddressesTag(*identity.UserID))
	}
	if succeeded {
		tags = append(tags, viewcache.CheckoutTag)
	}
	if len(tags) == 0 {
		return
	}
	s.views.InvalidateAsync(ctx, tags...)
}

// classify passes business failures through and collapses everything else.
func (s *service) classify(ctx context.Context, err error) error {
	if typed := pkgerrors.As(err); typed != nil && pkgerrors.IsBusiness(typed.Code()) {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"code":   string(typed.Code()),
			"reason": typed.Message(),
		})
		s.logg.Info(logCtx, "checkout.rejected")
		return typed
	}

	logCtx := s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	s.logg.Error(logCtx, "checkout.unexpected", err)
	return pkgerrors.Wrap(pkgerrors.CodeUnexpected, err, unexpectedMessage)
}

func (s *service) withIdentity(ctx context.Context, identity auth.Identity) context.Context {
	if identity.IsGuest() {
		return s.logg.WithGuestSession(ctx, identity.GuestSession)
	}
	return s.logg.WithUserID(ctx, identity.UserID.String())
}

func normalizeLocale(raw, fallback string) string {
	locale := strings.ToLower(strings.TrimSpace(raw))
	if localePattern.MatchString(locale) {
		return locale
	}
	return fallback
}
