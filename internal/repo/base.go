// Package repo holds what every gorm repository embeds.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB scopes the connection to ctx so cancellation reaches the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Optional turns gorm's not-found into a nil row. Lookups that treat absence as a
// normal outcome return through it.
func Optional[T any](row *T, err error) (*T, error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return row, nil
}
