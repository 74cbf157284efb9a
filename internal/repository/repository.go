package repository

import (
	"context"
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// CreateCompany creates a company user and points its company_id at
	// itself within a single transaction.
	CreateCompany(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// EmailTaken reports whether another user already owns email
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)

	// FindEmployee finds an employee belonging to the given company
	FindEmployee(ctx context.Context, companyID, employeeID uint64) (*models.User, error)

	// ListEmployees lists the employees of a company
	ListEmployees(ctx context.Context, companyID uint64) ([]models.User, error)

	// Update saves every column of the user
	Update(ctx context.Context, user *models.User) error

	// SetActive flips the active flag of a user
	SetActive(ctx context.Context, id uint64, active bool) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task together with its assignments
	Create(ctx context.Context, task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task by ID with its assignments loaded
	FindByID(ctx context.Context, id uint64) (*models.Task, error)

	// ListActive lists non-deleted, non-completed tasks visible under filter
	ListActive(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// ListOpen lists pending and in-progress tasks of a tenant
	ListOpen(ctx context.Context, tenantID uint64) ([]models.Task, error)

	// MarkExpired expires an open task and reports whether this call did it
	MarkExpired(ctx context.Context, id uint64, at time.Time) (bool, error)

	// Transition applies fields only if the task is still in status from,
	// and reports whether the row changed
	Transition(ctx context.Context, id uint64, from models.TaskStatus, fields map[string]any) (bool, error)

	// Update writes the editable columns only if the task still has the
	// status it was loaded with and, when assigneeIDs is non-nil, replaces
	// its assignments. It reports whether the row changed
	Update(ctx context.Context, task *models.Task, assigneeIDs []uint64) (bool, error)

	// CountTenantMembers counts how many of userIDs are the company itself or
	// one of its employees
	CountTenantMembers(ctx context.Context, tenantID uint64, userIDs []uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	TenantID uint64
	// ViewerID limits the result to tasks an employee can see. Zero means
	// the company view.
	ViewerID   uint64
	Status     *models.TaskStatus
	Favorite   *bool
	Pagination utils.PaginationParams
}

// RecordRepository defines the interface for the history and trash stores
type RecordRepository interface {
	// AddHistory inserts a history record, ignoring a duplicate for the same
	// task and status
	AddHistory(ctx context.Context, record *models.TaskHistory) error

	// AddDeleted inserts a trash record, ignoring a duplicate for the same task
	AddDeleted(ctx context.Context, record *models.DeletedTask) error

	// ListHistory lists history records visible under filter
	ListHistory(ctx context.Context, filter RecordFilter) ([]models.TaskHistory, int64, error)

	// ListDeleted lists trash records visible under filter
	ListDeleted(ctx context.Context, filter RecordFilter) ([]models.DeletedTask, int64, error)
}

// RecordFilter holds filtering options for history and trash listings
type RecordFilter struct {
	TenantID   uint64
	ViewerID   uint64
	Pagination utils.PaginationParams
}
