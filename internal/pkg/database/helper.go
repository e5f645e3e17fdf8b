package database

import (
	"context"

	"gorm.io/gorm"
)

// Paginate adds pagination to a query
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if pageSize < 1 {
			pageSize = 10
		}
		if pageSize > 100 {
			pageSize = 100 // Max page size
		}

		offset := (page - 1) * pageSize
		return db.Offset(offset).Limit(pageSize)
	}
}

// OrderBy adds ordering to a query
func OrderBy(field string, desc bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		order := field
		if desc {
			order = field + " DESC"
		}
		return db.Order(order)
	}
}

// Count counts records
func Count(ctx context.Context, db *gorm.DB, model interface{}, query interface{}, args ...interface{}) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error
	return count, err
}
