package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const redacted = "[REDACTED]"

// Square hosts per environment.
var hosts = map[string]string{
	"sandbox":    "https://connect.squareupsandbox.com",
	"production": "https://connect.squareup.com",
}

// Log fields whose names contain any of these are masked.
var sensitiveFields = []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"}

// Client wraps the Square SDK for hosted checkout. It owns the seller location and
// turns SDK failures into pkg/errors codes.
type Client struct {
	sdk        *sqclient.Client
	env        string
	locationID string
	logg       *logger.Logger
}

func NewClient(ctx context.Context, cfg config.SquareConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errors.New("square logger is required")
	}
	env := cfg.Environment()
	host, ok := hosts[env]
	if !ok {
		return nil, fmt.Errorf("square environment %q is not sandbox or production", env)
	}
	token := strings.TrimSpace(cfg.AccessToken)
	location := strings.TrimSpace(cfg.LocationID)
	switch {
	case token == "":
		return nil, errors.New("square access token is required")
	case location == "":
		return nil, errors.New("square location id is required")
	}

	c := &Client{
		sdk:        sqclient.NewClient(sqoption.WithBaseURL(host), sqoption.WithToken(token)),
		env:        env,
		locationID: location,
		logg:       logg,
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"square_env": env, "location_id": location}), "square client initialized")
	return c, nil
}

func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.env
}

func (c *Client) LocationID() string {
	if c == nil {
		return ""
	}
	return c.locationID
}

// CreatePaymentLink opens a Square hosted page for an ad-hoc order under the
// client's location unless params name another one.
func (c *Client) CreatePaymentLink(ctx context.Context, params PaymentLinkParams) (*sq.PaymentLink, error) {
	if strings.TrimSpace(params.LocationID) == "" {
		params.LocationID = c.locationID
	}
	req := params.toSquareRequest(idempotencyKey("payment_link", params.IdempotencyKey))

	ctx = c.logg.WithFields(ctx, maskFields(map[string]any{
		"square_op":    "create_payment_link",
		"location_id":  params.LocationID,
		"reference_id": params.ReferenceID,
		"line_items":   len(params.LineItems),
		"buyer_email":  params.BuyerEmail,
	}))
	resp, err := c.sdk.Checkout.PaymentLinks.Create(ctx, req)
	if err != nil {
		mapped := mapError("create payment link", err)
		c.logg.Error(c.logg.WithField(ctx, "error_code", string(pkgerrors.As(mapped).Code())), "square.request_failed", err)
		return nil, mapped
	}

	link := resp.GetPaymentLink()
	c.logg.Info(c.logg.WithFields(ctx, map[string]any{
		"payment_link_id": deref(link.GetID()),
		"order_id":        deref(link.GetOrderID()),
	}), "square.payment_link_created")
	return link, nil
}

// idempotencyKey keeps a caller supplied key and mints prefix-<uuid> otherwise.
func idempotencyKey(prefix, provided string) string {
	if key := strings.TrimSpace(provided); key != "" {
		return key
	}
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = "sf"
	}
	return prefix + "-" + uuid.NewString()
}

func maskFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = maskValue(k, v)
	}
	return out
}

func maskValue(key string, value any) any {
	lower := strings.ToLower(key)
	for _, marker := range sensitiveFields {
		if strings.Contains(lower, marker) {
			return redacted
		}
	}
	return value
}

// mapError prefers Square's own error codes over the HTTP status.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := "square " + op + " failed"
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
	code := codeForStatus(apiErr.StatusCode)
	for _, detail := range squareErrors(apiErr) {
		switch {
		case detail == nil:
			continue
		case detail.Code == sq.ErrorCodeIdempotencyKeyReused:
			return pkgerrors.Wrap(pkgerrors.CodeIdempotency, err, msg)
		case detail.Category == sq.ErrorCategoryAuthenticationError:
			return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
		}
	}
	return pkgerrors.Wrap(code, err, msg)
}

// squareErrors decodes the errors array the SDK leaves as the APIError's cause.
func squareErrors(apiErr *sqcore.APIError) []*sq.Error {
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	var body struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner.Error())), &body); err != nil {
		return nil
	}
	return body.Errors
}

var statusCodes = map[int]pkgerrors.Code{
	http.StatusBadRequest:          pkgerrors.CodeValidation,
	http.StatusUnauthorized:        pkgerrors.CodeUnauthorized,
	http.StatusForbidden:           pkgerrors.CodeForbidden,
	http.StatusNotFound:            pkgerrors.CodeNotFound,
	http.StatusConflict:            pkgerrors.CodeConflict,
	http.StatusUnprocessableEntity: pkgerrors.CodeStateConflict,
	http.StatusTooManyRequests:     pkgerrors.CodeRateLimit,
}

func codeForStatus(status int) pkgerrors.Code {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	if status >= 400 && status < 500 {
		return pkgerrors.CodeValidation
	}
	return pkgerrors.CodeDependency
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
