package repository

import (
	"context"

	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordRepository is a GORM implementation of RecordRepository
type GormRecordRepository struct {
	db *gorm.DB
}

// NewRecordRepository creates a new RecordRepository
func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &GormRecordRepository{db: db}
}

// AddHistory inserts a history record
func (r *GormRecordRepository) AddHistory(ctx context.Context, record *models.TaskHistory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

// AddDeleted inserts a trash record
func (r *GormRecordRepository) AddDeleted(ctx context.Context, record *models.DeletedTask) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}

// ListHistory lists history records, newest first
func (r *GormRecordRepository) ListHistory(ctx context.Context, filter RecordFilter) ([]models.TaskHistory, int64, error) {
	var records []models.TaskHistory
	total, err := r.list(ctx, "task_histories", filter, &models.TaskHistory{}, &records)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListDeleted lists trash records, newest first
func (r *GormRecordRepository) ListDeleted(ctx context.Context, filter RecordFilter) ([]models.DeletedTask, int64, error) {
	var records []models.DeletedTask
	total, err := r.list(ctx, "deleted_tasks", filter, &models.DeletedTask{}, &records)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *GormRecordRepository) list(ctx context.Context, table string, filter RecordFilter, model, dest any) (int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(model).Scopes(database.ForTenant(table, filter.TenantID))

		if filter.ViewerID != 0 {
			// Assignment rows outlive soft deletion, so they still describe
			// who the task was targeted at.
			assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
				Select("1").
				Where("task_assignments.task_id = " + table + ".task_id").
				Where("task_assignments.user_id = ?", filter.ViewerID)
			query = query.Where(
				table+".is_public = ? OR "+table+".created_by = ? OR "+table+".recorded_by = ? OR EXISTS (?)",
				true, filter.ViewerID, filter.ViewerID, assignmentSubQuery,
			)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, err
	}

	err := base().
		Order(table + ".recorded_at DESC").
		Order(table + ".id ASC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(dest).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
