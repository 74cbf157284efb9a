package repository

import (
	"context"
	"time"

	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task and its assignment rows in one transaction
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task, assigneeIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		assignments, err := replaceAssignments(tx, task.ID, assigneeIDs)
		if err != nil {
			return err
		}
		task.Assignments = assignments
		return nil
	})
}

// FindByID finds a task by ID with its assignments
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("Assignments").First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListActive retrieves active tasks with visibility filtering and pagination
func (r *GormTaskRepository) ListActive(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	base := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Task{}).
			Scopes(database.ForTenant("tasks", filter.TenantID), database.ActiveTasks)

		if filter.ViewerID != 0 {
			assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
				Select("1").
				Where("task_assignments.task_id = tasks.id").
				Where("task_assignments.user_id = ?", filter.ViewerID)
			query = query.Where("tasks.is_public = ? OR tasks.created_by = ? OR EXISTS (?)",
				true, filter.ViewerID, assignmentSubQuery)
		}
		if filter.Status != nil {
			query = query.Where("tasks.status = ?", *filter.Status)
		}
		if filter.Favorite != nil {
			query = query.Where("tasks.is_favorite = ?", *filter.Favorite)
		}
		return query
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.Task
	err := base().
		Preload("Assignments").
		Order("tasks.to_date ASC, tasks.id ASC").
		Scopes(database.Paginate(filter.Pagination)).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListOpen lists pending and in-progress tasks of a tenant
func (r *GormTaskRepository) ListOpen(ctx context.Context, tenantID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.ForTenant("tasks", tenantID), database.OpenTasks).
		Preload("Assignments").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// MarkExpired moves an open task to expired. The status guard makes
// concurrent sweeps expire a task at most once.
func (r *GormTaskRepository) MarkExpired(ctx context.Context, id uint64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.id = ?", id).
		Scopes(database.OpenTasks).
		Updates(map[string]any{
			"status":            models.TaskStatusExpired,
			"expired_at":        at,
			"status_updated_at": at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Transition updates fields only while the task still has status from
func (r *GormTaskRepository) Transition(ctx context.Context, id uint64, from models.TaskStatus, fields map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.id = ? AND tasks.status = ? AND tasks.is_deleted = ?", id, from, false).
		Updates(fields)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// editableColumns are the task columns an edit may write. Status and its
// timestamps belong to Transition and MarkExpired.
var editableColumns = []string{
	"title", "description", "from_date", "to_date", "priority",
	"task_color", "task_font_family", "description_color", "description_font_family",
	"is_favorite", "is_public", "assigned_at", "updated_at",
}

// Update writes the editable columns while the task still has the status it
// was loaded with, and optionally replaces its assignments
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, assigneeIDs []uint64) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("tasks.id = ? AND tasks.status = ? AND tasks.is_deleted = ?", task.ID, task.Status, false).
			Select(editableColumns).
			Updates(task)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return nil
		}
		changed = true
		if assigneeIDs == nil {
			return nil
		}

		assignments, err := replaceAssignments(tx, task.ID, assigneeIDs)
		if err != nil {
			return err
		}
		task.Assignments = assignments
		return nil
	})
	return changed, err
}

// CountTenantMembers counts the given users that are the company or its employees
func (r *GormTaskRepository) CountTenantMembers(ctx context.Context, tenantID uint64, userIDs []uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ?", userIDs).
		Where("(type = ? AND company_id = ?) OR (type = ? AND id = ?)",
			models.UserTypeEmployee, tenantID, models.UserTypeCompany, tenantID).
		Count(&count).Error
	return count, err
}

func replaceAssignments(tx *gorm.DB, taskID uint64, userIDs []uint64) ([]models.TaskAssignment, error) {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAssignment{}).Error; err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return []models.TaskAssignment{}, nil
	}

	assignments := make([]models.TaskAssignment, len(userIDs))
	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	if err := tx.Omit(clause.Associations).Create(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
