package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository reads shipping methods.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// FindByID returns nil, nil when the method does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShippingMethod, error) {
	var row models.ShippingMethod
	return repo.Optional(&row, r.DB(ctx).Where("id = ?", id).Take(&row).Error)
}

// ListActive returns selectable methods, cheapest first.
func (r *Repository) ListActive(ctx context.Context) ([]models.ShippingMethod, error) {
	var rows []models.ShippingMethod
	err := r.DB(ctx).
		Where("is_active = ?", true).
		Order("price ASC").
		Order("display_name ASC").
		Find(&rows).Error
	return rows, err
}
