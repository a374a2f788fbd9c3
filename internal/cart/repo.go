package cart

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository loads carts for checkout. Carts are written by the cart flows, never here.
type Repository struct {
	repo.Base
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindActiveForUser loads the newest active cart owned by userID, or nil when none exists.
func (r *Repository) FindActiveForUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	return r.findActive(ctx, "user_id = ?", userID)
}

// FindActiveForGuest loads the newest active cart bound to the guest session token.
func (r *Repository) FindActiveForGuest(ctx context.Context, guestToken string) (*models.Cart, error) {
	token := strings.TrimSpace(guestToken)
	if token == "" {
		return nil, nil
	}
	return r.findActive(ctx, "guest_token = ? AND user_id IS NULL", token)
}

func (r *Repository) findActive(ctx context.Context, where string, arg any) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Where(where, arg).
		Where("status = ?", enums.CartStatusActive).
		Order("created_at DESC").
		First(&cart).Error
	return repo.Optional(&cart, err)
}
