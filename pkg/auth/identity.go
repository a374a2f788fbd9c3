package auth

import (
	"strings"

	"github.com/google/uuid"
)

// Identity is the actor performing a request: an authenticated shopper or a guest session.
type Identity struct {
	UserID       *uuid.UUID
	Email        string
	GuestSession string
}

// Authenticated builds an identity for a signed-in shopper.
func Authenticated(userID uuid.UUID, email string) Identity {
	id := userID
	return Identity{UserID: &id, Email: strings.TrimSpace(email)}
}

// Guest builds an identity for an anonymous browser session.
func Guest(sessionID string) Identity {
	return Identity{GuestSession: strings.TrimSpace(sessionID)}
}

// IsGuest reports whether no authenticated user is attached.
func (i Identity) IsGuest() bool {
	return i.UserID == nil || *i.UserID == uuid.Nil
}

// FromClaims converts validated token claims into an identity.
func FromClaims(claims *AccessTokenClaims) Identity {
	if claims == nil {
		return Identity{}
	}
	return Authenticated(claims.UserID, claims.Email)
}
