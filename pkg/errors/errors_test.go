package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestCheckoutCodeMetadata(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		business  bool
		retryable bool
	}{
		{CodeInvalidAddress, http.StatusBadRequest, true, false},
		{CodeInvalidShippingMethod, http.StatusBadRequest, true, false},
		{CodeEmptyCart, http.StatusConflict, true, false},
		{CodeGuestCheckoutDisabled, http.StatusForbidden, true, false},
		{CodeProductNotFound, http.StatusConflict, true, false},
		{CodeInsufficientStock, http.StatusConflict, true, false},
		{CodePaymentSessionFailed, http.StatusBadGateway, true, true},
		{CodeUnexpected, http.StatusInternalServerError, false, true},
		{CodeDependency, http.StatusServiceUnavailable, false, true},
		{CodeValidation, http.StatusBadRequest, false, false},
	}
	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("%s: expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("%s: expected retryable=%v", tt.code, tt.retryable)
		}
		if IsBusiness(tt.code) != tt.business {
			t.Fatalf("%s: expected business=%v", tt.code, tt.business)
		}
	}
	if got := MetadataFor(CodeUnexpected).PublicMessage; got != "an unexpected error occurred during checkout" {
		t.Fatalf("unexpected public message %q", got)
	}
}

func TestEveryCodeHasPublicMessage(t *testing.T) {
	for code, meta := range metadataByCode {
		if meta.PublicMessage == "" || meta.HTTPStatus < 400 {
			t.Fatalf("%s has incomplete metadata %+v", code, meta)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestMetadataForCheckoutCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeInvalidAddress, http.StatusBadRequest},
		{CodeInvalidShippingMethod, http.StatusBadRequest},
		{CodeEmptyCart, http.StatusConflict},
		{CodeGuestCheckoutDisabled, http.StatusForbidden},
		{CodeProductNotFound, http.StatusConflict},
		{CodeInsufficientStock, http.StatusConflict},
		{CodePaymentSessionFailed, http.StatusBadGateway},
		{CodeUnexpected, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := MetadataFor(tt.code).HTTPStatus; got != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, got)
		}
	}
	if MetadataFor(CodeUnexpected).PublicMessage != "an unexpected error occurred during checkout" {
		t.Fatalf("unexpected public message for catch-all: %q", MetadataFor(CodeUnexpected).PublicMessage)
	}
}

func TestIsBusiness(t *testing.T) {
	if !IsBusiness(CodeEmptyCart) || !IsBusiness(CodePaymentSessionFailed) {
		t.Fatal("checkout codes should be business failures")
	}
	if IsBusiness(CodeUnexpected) || IsBusiness(CodeInternal) || IsBusiness(CodeValidation) {
		t.Fatal("catch-all and generic codes are not business failures")
	}
}

func TestDumpCapturesPostgresDetail(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key", ConstraintName: "addresses_pkey", TableName: "addresses"}
	err := Wrap(CodeConflict, fmt.Errorf("insert address: %w", pgErr), "already exists")

	dump := Dump(err)
	if dump.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %q", dump.Code)
	}
	if dump.Postgres == nil || dump.Postgres.Code != "23505" || dump.Postgres.Constraint != "addresses_pkey" {
		t.Fatalf("postgres detail missing: %+v", dump.Postgres)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected three chain entries, got %v", dump.Chain)
	}

	fields := dump.Fields()
	if fields["pg_constraint"] != "addresses_pkey" || fields["error_code"] != CodeConflict {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatal("empty postgres attributes should be omitted")
	}
}

func TestDumpPlainError(t *testing.T) {
	if got := Dump(nil); got.Message != "" || got.Chain != nil {
		t.Fatalf("nil error should dump empty, got %+v", got)
	}
	fields := Dump(stdErrors.New("boom")).Fields()
	if fields["error"] != "boom" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["error_chain"]; ok {
		t.Fatal("single-link chain should be omitted")
	}
}
