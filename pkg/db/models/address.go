package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Address is a saved shipping or billing address owned by a user.
type Address struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.AddressType `gorm:"column:type;not null"`
	FirstName   string            `gorm:"column:first_name;not null"`
	LastName    string            `gorm:"column:last_name;not null"`
	Line1       string            `gorm:"column:line1;not null"`
	Line2       *string           `gorm:"column:line2"`
	City        string            `gorm:"column:city;not null"`
	PostalCode  string            `gorm:"column:postal_code;not null"`
	CountryCode string            `gorm:"column:country_code;not null"`
	Phone       *string           `gorm:"column:phone"`
	Email       *string           `gorm:"column:email"`
	IsDefault   bool              `gorm:"column:is_default;not null;default:false"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
