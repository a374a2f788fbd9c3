package address

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type store interface {
	CreateMany(ctx context.Context, rows []*models.Address) error
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Address, error)
}

// Validator normalizes and validates shipping/billing pairs and saves new addresses
// for signed-in shoppers.
type Validator struct {
	store    store
	validate *validator.Validate
}

func NewValidator(s store) (*Validator, error) {
	if s == nil {
		return nil, errors.New("address store is required")
	}
	return &Validator{store: s, validate: validator.New()}, nil
}

// ValidateAndProcess checks both addresses and resolves the ids recorded on the session.
// A nil userID means guest checkout; nothing is persisted in that case.
func (v *Validator) ValidateAndProcess(ctx context.Context, shipping, billing Address, userID *uuid.UUID, opts Options) (Processed, error) {
	if shipping == nil {
		return Processed{}, pkgerrors.New(pkgerrors.CodeInvalidAddress, "shipping address is required")
	}
	if billing == nil {
		return Processed{}, pkgerrors.New(pkgerrors.CodeInvalidAddress, "billing address is required")
	}

	allowed := allowList(opts.AllowedCountries)
	billingSame := sameAddress(shipping, billing)

	if userID == nil || *userID == uuid.Nil {
		if !opts.AllowGuestAddresses {
			return Processed{}, pkgerrors.New(pkgerrors.CodeGuestCheckoutDisabled, "guest checkout is disabled, please sign in to continue")
		}
		if err := v.checkGuest("shipping", shipping, allowed); err != nil {
			return Processed{}, err
		}
		if !billingSame {
			if err := v.checkGuest("billing", billing, allowed); err != nil {
				return Processed{}, err
			}
		}
		return Processed{
			ShippingAddressID: GuestAddressID,
			BillingAddressID:  GuestAddressID,
			IsGuestCheckout:   true,
		}, nil
	}

	owner := *userID
	var pending []*models.Address

	shippingID, row, err := v.resolve(ctx, "shipping", enums.AddressTypeShipping, shipping, owner, allowed)
	if err != nil {
		return Processed{}, err
	}
	if row != nil {
		pending = append(pending, row)
	}

	billingID := shippingID
	if !billingSame {
		billingID, row, err = v.resolve(ctx, "billing", enums.AddressTypeBilling, billing, owner, allowed)
		if err != nil {
			return Processed{}, err
		}
		if row != nil {
			pending = append(pending, row)
		}
	}

	if err := v.store.CreateMany(ctx, pending); err != nil {
		return Processed{}, fmt.Errorf("saving checkout addresses: %w", err)
	}

	return Processed{
		ShippingAddressID: shippingID.String(),
		BillingAddressID:  billingID.String(),
		Persisted:         len(pending) > 0,
	}, nil
}

func (v *Validator) checkGuest(label string, addr Address, allowed map[string]struct{}) error {
	switch a := addr.(type) {
	case UnsavedAddress:
		_, err := v.checkFields(label, a.Fields, allowed)
		return err
	case PersistedAddress:
		return pkgerrors.New(pkgerrors.CodeInvalidAddress, fmt.Sprintf("saved %s addresses require signing in", label))
	default:
		return pkgerrors.New(pkgerrors.CodeInvalidAddress, fmt.Sprintf("%s address is required", label))
	}
}

// resolve returns the id to use for addr and, for unsaved input, the row to insert.
func (v *Validator) resolve(ctx context.Context, label string, kind enums.AddressType, addr Address, owner uuid.UUID, allowed map[string]struct{}) (uuid.UUID, *models.Address, error) {
	switch a := addr.(type) {
	case PersistedAddress:
		row, err := v.store.FindOwned(ctx, a.ID, owner)
		if err != nil {
			return uuid.Nil, nil, fmt.Errorf("loading %s address: %w", label, err)
		}
		if row == nil {
			return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeInvalidAddress, fmt.Sprintf("%s address not found", label))
		}
		if _, ok := allowed[strings.ToUpper(row.CountryCode)]; !ok {
			return uuid.Nil, nil, countryNotServed(label, row.CountryCode)
		}
		return row.ID, nil, nil
	case UnsavedAddress:
		fields, err := v.checkFields(label, a.Fields, allowed)
		if err != nil {
			return uuid.Nil, nil, err
		}
		row := toModel(fields, owner, kind)
		row.ID = uuid.New()
		return row.ID, row, nil
	default:
		return uuid.Nil, nil, pkgerrors.New(pkgerrors.CodeInvalidAddress, fmt.Sprintf("%s address is required", label))
	}
}

func (v *Validator) checkFields(label string, raw Fields, allowed map[string]struct{}) (Fields, error) {
	fields := raw.Normalize()
	if err := v.validate.Struct(fields); err != nil {
		return Fields{}, fieldError(label, err)
	}
	if _, ok := allowed[fields.CountryCode]; !ok {
		return Fields{}, countryNotServed(label, fields.CountryCode)
	}
	return fields, nil
}

func fieldError(label string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidAddress, err, fmt.Sprintf("%s address is invalid", label))
	}
	details := map[string]string{}
	for _, fe := range verrs {
		details[jsonName(fe.StructField())] = fieldMessage(fe)
	}
	first := verrs[0]
	msg := fmt.Sprintf("%s address: %s %s", label, humanName(first.StructField()), fieldMessage(first))
	return pkgerrors.New(pkgerrors.CodeInvalidAddress, msg).WithDetails(map[string]any{
		"address": label,
		"fields":  details,
	})
}

func countryNotServed(label, country string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidAddress, fmt.Sprintf("we do not ship to %s (%s address)", country, label)).
		WithDetails(map[string]any{"address": label, "country_code": country})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min", "postcode_iso3166_alpha2_field":
		return "is not valid for the selected country"
	case "iso3166_1_alpha2":
		return "must be a two-letter country code"
	case "email":
		return "must be a valid email"
	}
	return "is invalid"
}

var humanNames = map[string]string{
	"FirstName":   "first name",
	"LastName":    "last name",
	"Line1":       "address line 1",
	"Line2":       "address line 2",
	"City":        "city",
	"PostalCode":  "postal code",
	"CountryCode": "country",
	"Phone":       "phone",
	"Email":       "email",
}

var jsonNames = map[string]string{
	"FirstName":   "first_name",
	"LastName":    "last_name",
	"Line1":       "line1",
	"Line2":       "line2",
	"City":        "city",
	"PostalCode":  "postal_code",
	"CountryCode": "country_code",
	"Phone":       "phone",
	"Email":       "email",
}

func humanName(field string) string {
	if name, ok := humanNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

func jsonName(field string) string {
	if name, ok := jsonNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}

func allowList(countries []string) map[string]struct{} {
	out := make(map[string]struct{}, len(countries))
	for _, c := range countries {
		if code := strings.ToUpper(strings.TrimSpace(c)); code != "" {
			out[code] = struct{}{}
		}
	}
	return out
}

func toModel(f Fields, owner uuid.UUID, kind enums.AddressType) *models.Address {
	return &models.Address{
		UserID:      owner,
		Type:        kind,
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		Line1:       f.Line1,
		Line2:       optional(f.Line2),
		City:        f.City,
		PostalCode:  f.PostalCode,
		CountryCode: f.CountryCode,
		Phone:       optional(f.Phone),
		Email:       optional(f.Email),
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
