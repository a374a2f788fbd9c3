package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addressBody struct {
	City    string `json:"city" validate:"required"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

type sessionBody struct {
	Locale   string       `json:"locale" validate:"omitempty,max=5"`
	Shipping *addressBody `json:"shipping_address" validate:"required"`
}

func decode(t *testing.T, body string) (*sessionBody, *pkgerrors.Error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest sessionBody
	err := DecodeJSONBody(httptest.NewRecorder(), req, &dest)
	if err == nil {
		return &dest, nil
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	return nil, typed
}

func TestDecodeJSONBodyValid(t *testing.T) {
	dest, err := decode(t, `{"locale":"de","shipping_address":{"city":"Berlin","country":"DE"}}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Shipping.City != "Berlin" {
		t.Fatalf("unexpected decode %+v", dest.Shipping)
	}
}

func TestDecodeJSONBodyFieldErrorsUseJSONPaths(t *testing.T) {
	_, err := decode(t, `{"locale":"toolong","shipping_address":{"country":"Germany"}}`)
	if err == nil || err.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", err.Details())
	}
	want := map[string]string{
		"locale":                   "must be at most 5",
		"shipping_address.city":    "is required",
		"shipping_address.country": "must be a two-letter country code",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("field %s: expected %q got %q (all: %v)", field, msg, details[field], details)
		}
	}
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"unknown":  `{"coupon":"X"}`,
		"trailing": `{"shipping_address":{"city":"a","country":"DE"}} {}`,
		"too big":  `{"locale":"` + strings.Repeat("x", MaxBodyBytes) + `"}`,
	}
	for name, body := range cases {
		if _, err := decode(t, body); err == nil || err.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}
