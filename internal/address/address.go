package address

import (
	"strings"

	"github.com/google/uuid"
)

// GuestAddressID stands in for address ids when nothing was persisted.
const GuestAddressID = "guest_address"

// Fields holds the structured parts of a postal address.
type Fields struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	Line1       string `json:"line1" validate:"required,max=200"`
	Line2       string `json:"line2,omitempty" validate:"max=200"`
	City        string `json:"city" validate:"required,max=100"`
	PostalCode  string `json:"postal_code" validate:"required,min=3,max=10,postcode_iso3166_alpha2_field=CountryCode"`
	CountryCode string `json:"country_code" validate:"required,iso3166_1_alpha2"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// Normalize trims every field and upper-cases the country and postal codes.
func (f Fields) Normalize() Fields {
	return Fields{
		FirstName:   strings.TrimSpace(f.FirstName),
		LastName:    strings.TrimSpace(f.LastName),
		Line1:       strings.TrimSpace(f.Line1),
		Line2:       strings.TrimSpace(f.Line2),
		City:        strings.TrimSpace(f.City),
		PostalCode:  strings.ToUpper(strings.TrimSpace(f.PostalCode)),
		CountryCode: strings.ToUpper(strings.TrimSpace(f.CountryCode)),
		Phone:       strings.TrimSpace(f.Phone),
		Email:       strings.ToLower(strings.TrimSpace(f.Email)),
	}
}

// Address is either a PersistedAddress or an UnsavedAddress.
type Address interface {
	isAddress()
}

// PersistedAddress references a saved address row by id.
type PersistedAddress struct {
	ID uuid.UUID
}

// UnsavedAddress carries address fields that have not been stored.
type UnsavedAddress struct {
	Fields Fields
}

func (PersistedAddress) isAddress() {}
func (UnsavedAddress) isAddress()   {}

// Processed is the outcome of validating a shipping/billing pair.
type Processed struct {
	ShippingAddressID string
	BillingAddressID  string
	IsGuestCheckout   bool
	// Persisted is set when at least one new address row was written.
	Persisted bool
}

// Options controls guest handling and the serviceable country allow-list.
type Options struct {
	AllowGuestAddresses bool
	AllowedCountries    []string
}

func sameAddress(a, b Address) bool {
	switch x := a.(type) {
	case PersistedAddress:
		y, ok := b.(PersistedAddress)
		return ok && x.ID == y.ID
	case UnsavedAddress:
		y, ok := b.(UnsavedAddress)
		return ok && x.Fields.Normalize() == y.Fields.Normalize()
	}
	return false
}
