package address

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/repo/sqlitetest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type stubStore struct {
	owned     map[uuid.UUID]*models.Address
	created   []*models.Address
	createErr error
	findErr   error
}

func (s *stubStore) CreateMany(_ context.Context, rows []*models.Address) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, rows...)
	return nil
}

func (s *stubStore) FindOwned(_ context.Context, id, userID uuid.UUID) (*models.Address, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	row, ok := s.owned[id]
	if !ok || row.UserID != userID {
		return nil, nil
	}
	return row, nil
}

func berlin() Fields {
	return Fields{
		FirstName:   "Jane",
		LastName:    "Doe",
		Line1:       "Unter den Linden 1",
		City:        "Berlin",
		PostalCode:  "10117",
		CountryCode: "de",
	}
}

func paris() Fields {
	return Fields{
		FirstName:   "Jane",
		LastName:    "Doe",
		Line1:       "1 Rue de Rivoli",
		City:        "Paris",
		PostalCode:  "75001",
		CountryCode: "FR",
	}
}

func defaultOptions() Options {
	return Options{AllowGuestAddresses: true, AllowedCountries: []string{"DE", "FR"}}
}

func newTestValidator(t *testing.T, s store) *Validator {
	t.Helper()
	v, err := NewValidator(s)
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	return v
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected %s, got %v", want, err)
	}
	if typed.Code() != want {
		t.Fatalf("expected %s, got %s (%s)", want, typed.Code(), typed.Message())
	}
}

func TestNewValidatorRequiresStore(t *testing.T) {
	if _, err := NewValidator(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestValidateAndProcess_GuestUsesPlaceholderIDs(t *testing.T) {
	s := &stubStore{}
	v := newTestValidator(t, s)

	out, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: paris()}, nil, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.IsGuestCheckout {
		t.Fatal("expected guest checkout")
	}
	if out.ShippingAddressID != GuestAddressID || out.BillingAddressID != GuestAddressID {
		t.Fatalf("unexpected ids %+v", out)
	}
	if out.Persisted || len(s.created) != 0 {
		t.Fatal("guest addresses must not be persisted")
	}
}

func TestValidateAndProcess_GuestDisabled(t *testing.T) {
	v := newTestValidator(t, &stubStore{})
	opts := defaultOptions()
	opts.AllowGuestAddresses = false

	_, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: berlin()}, nil, opts)
	assertCode(t, err, pkgerrors.CodeGuestCheckoutDisabled)
}

func TestValidateAndProcess_GuestCannotReferenceSavedAddress(t *testing.T) {
	v := newTestValidator(t, &stubStore{})

	_, err := v.ValidateAndProcess(context.Background(), PersistedAddress{ID: uuid.New()}, UnsavedAddress{Fields: berlin()}, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_NilAddress(t *testing.T) {
	v := newTestValidator(t, &stubStore{})

	_, err := v.ValidateAndProcess(context.Background(), nil, UnsavedAddress{Fields: berlin()}, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)

	_, err = v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, nil, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_RejectsMissingFields(t *testing.T) {
	v := newTestValidator(t, &stubStore{})
	fields := berlin()
	fields.City = "   "

	_, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: fields}, UnsavedAddress{Fields: fields}, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)

	details, ok := pkgerrors.As(err).Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details map, got %T", pkgerrors.As(err).Details())
	}
	fieldErrs, ok := details["fields"].(map[string]string)
	if !ok || fieldErrs["city"] == "" {
		t.Fatalf("expected city violation, got %v", details)
	}
}

func TestValidateAndProcess_RejectsPostcodeForCountry(t *testing.T) {
	v := newTestValidator(t, &stubStore{})
	fields := berlin()
	fields.PostalCode = "ABCDE"

	_, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: fields}, UnsavedAddress{Fields: fields}, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_RejectsCountryOutsideAllowList(t *testing.T) {
	v := newTestValidator(t, &stubStore{})
	fields := berlin()
	fields.CountryCode = "NL"
	fields.PostalCode = "1012 AB"

	_, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: fields}, nil, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_PersistsNewAddressesForUser(t *testing.T) {
	s := &stubStore{}
	v := newTestValidator(t, s)
	userID := uuid.New()

	out, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: paris()}, &userID, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.IsGuestCheckout || !out.Persisted {
		t.Fatalf("unexpected flags %+v", out)
	}
	if len(s.created) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(s.created))
	}
	shipping, billing := s.created[0], s.created[1]
	if shipping.Type != enums.AddressTypeShipping || billing.Type != enums.AddressTypeBilling {
		t.Fatalf("unexpected types %s/%s", shipping.Type, billing.Type)
	}
	if shipping.UserID != userID || billing.UserID != userID {
		t.Fatal("rows must be owned by the user")
	}
	if shipping.CountryCode != "DE" {
		t.Fatalf("country should be normalized, got %q", shipping.CountryCode)
	}
	if out.ShippingAddressID != shipping.ID.String() || out.BillingAddressID != billing.ID.String() {
		t.Fatalf("ids do not match persisted rows: %+v", out)
	}
}

func TestValidateAndProcess_SameBillingReusesShippingRow(t *testing.T) {
	s := &stubStore{}
	v := newTestValidator(t, s)
	userID := uuid.New()
	billing := berlin()
	billing.City = " Berlin "

	out, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: billing}, &userID, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.created) != 1 {
		t.Fatalf("expected a single row, got %d", len(s.created))
	}
	if out.ShippingAddressID != out.BillingAddressID {
		t.Fatalf("expected shared id, got %+v", out)
	}
}

func TestValidateAndProcess_SavedAddressMustBeOwned(t *testing.T) {
	owner := uuid.New()
	saved := &models.Address{ID: uuid.New(), UserID: owner, CountryCode: "DE"}
	s := &stubStore{owned: map[uuid.UUID]*models.Address{saved.ID: saved}}
	v := newTestValidator(t, s)

	out, err := v.ValidateAndProcess(context.Background(), PersistedAddress{ID: saved.ID}, PersistedAddress{ID: saved.ID}, &owner, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.ShippingAddressID != saved.ID.String() || out.BillingAddressID != saved.ID.String() {
		t.Fatalf("unexpected ids %+v", out)
	}
	if out.Persisted {
		t.Fatal("referencing saved rows must not count as persisting")
	}

	stranger := uuid.New()
	_, err = v.ValidateAndProcess(context.Background(), PersistedAddress{ID: saved.ID}, PersistedAddress{ID: saved.ID}, &stranger, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_SavedAddressOutsideAllowList(t *testing.T) {
	owner := uuid.New()
	saved := &models.Address{ID: uuid.New(), UserID: owner, CountryCode: "US"}
	v := newTestValidator(t, &stubStore{owned: map[uuid.UUID]*models.Address{saved.ID: saved}})

	_, err := v.ValidateAndProcess(context.Background(), PersistedAddress{ID: saved.ID}, PersistedAddress{ID: saved.ID}, &owner, defaultOptions())
	assertCode(t, err, pkgerrors.CodeInvalidAddress)
}

func TestValidateAndProcess_StoreFailuresAreNotBusinessErrors(t *testing.T) {
	userID := uuid.New()
	boom := errors.New("connection reset")
	v := newTestValidator(t, &stubStore{createErr: boom})

	_, err := v.ValidateAndProcess(context.Background(), UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: berlin()}, &userID, defaultOptions())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if pkgerrors.As(err) != nil {
		t.Fatal("store failures must not carry a checkout code")
	}
}

func TestValidateAndProcess_WithSQLiteRepository(t *testing.T) {
	db := sqlitetest.Open(t, &models.Address{})
	repository := NewRepository(db)
	v := newTestValidator(t, repository)
	userID := uuid.New()
	ctx := context.Background()

	out, err := v.ValidateAndProcess(ctx, UnsavedAddress{Fields: berlin()}, UnsavedAddress{Fields: paris()}, &userID, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := repository.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stored addresses, got %d", len(rows))
	}

	shippingID, err := uuid.Parse(out.ShippingAddressID)
	if err != nil {
		t.Fatalf("shipping id is not a uuid: %v", err)
	}
	again, err := v.ValidateAndProcess(ctx, PersistedAddress{ID: shippingID}, PersistedAddress{ID: shippingID}, &userID, defaultOptions())
	if err != nil {
		t.Fatalf("unexpected error reusing saved address: %v", err)
	}
	if again.ShippingAddressID != out.ShippingAddressID {
		t.Fatalf("expected saved id to round-trip, got %s", again.ShippingAddressID)
	}
}
