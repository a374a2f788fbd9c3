package enums

import "fmt"

// CartStatus is active while the shopper is still filling the cart. Converted carts
// have become orders and are never offered to checkout again.
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
)

func (c CartStatus) String() string {
	return string(c)
}

// IsValid reports whether the value matches the carts.status check constraint.
func (c CartStatus) IsValid() bool {
	switch c {
	case CartStatusActive, CartStatusConverted:
		return true
	}
	return false
}

// ParseCartStatus converts a stored value into a CartStatus.
func ParseCartStatus(value string) (CartStatus, error) {
	if status := CartStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid cart status %q", value)
}
