package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists saved addresses.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// CreateMany inserts all rows in a single statement.
func (r *Repository) CreateMany(ctx context.Context, rows []*models.Address) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Create(rows).Error
}

// FindOwned loads an address only if it belongs to userID. Returns nil when absent.
func (r *Repository) FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var row models.Address
	return repo.Optional(&row, r.DB(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&row).Error)
}

// ListByUser returns the user's addresses, defaults first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
