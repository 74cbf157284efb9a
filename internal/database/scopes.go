package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/utils"
)

// Paginate applies pagination to a GORM query. A zero limit leaves the query
// unbounded.
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// ForTenant restricts a query on a table with a company_id column.
func ForTenant(table string, tenantID uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".company_id = ?", tenantID)
	}
}

// ActiveTasks keeps tasks that are neither deleted nor completed.
func ActiveTasks(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.is_deleted = ?", false).
		Where("tasks.status <> ?", models.TaskStatusCompleted)
}

// OpenTasks keeps tasks the expiry sweep may touch.
func OpenTasks(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.is_deleted = ?", false).
		Where("tasks.status IN ?", models.OpenStatuses)
}
