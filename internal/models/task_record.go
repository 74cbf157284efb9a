package models

import (
	"time"
)

// TaskSnapshot is the copy of a task kept after it leaves the active set.
type TaskSnapshot struct {
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	CompanyID   uint64       `gorm:"not null;index" json:"company_id"`
	CreatedBy   uint64       `gorm:"not null" json:"created_by"`
	AssigneeIDs []uint64     `gorm:"type:text;serializer:json" json:"assignee_ids"`
	IsPublic    bool         `gorm:"not null" json:"is_public"`
	FromDate    *time.Time   `json:"from_date"`
	ToDate      time.Time    `gorm:"not null" json:"to_date"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null" json:"priority"`
	TaskStyle   `gorm:"embedded"`
	IsFavorite  bool `gorm:"not null" json:"is_favorite"`

	StatusUpdatedBy *uint64    `json:"status_updated_by"`
	StatusUpdatedAt *time.Time `json:"status_updated_at"`
	CompletedBy     *uint64    `json:"completed_by"`
	CompletedAt     *time.Time `json:"completed_at"`
	ExpiredAt       *time.Time `json:"expired_at"`
	DeletedAt       *time.Time `json:"deleted_at"`
	TaskCreatedAt   time.Time  `json:"task_created_at"`
}

// TaskHistory records a task that was completed or expired. A task has at
// most one record per status.
type TaskHistory struct {
	ID           string     `gorm:"primarykey;type:varchar(36)" json:"id"`
	TaskID       uint64     `gorm:"not null;uniqueIndex:idx_task_histories_task_status" json:"task_id"`
	Status       TaskStatus `gorm:"type:varchar(20);not null;uniqueIndex:idx_task_histories_task_status" json:"status"`
	TaskSnapshot `gorm:"embedded"`
	// RecordedBy is nil when the sweep expired the task.
	RecordedBy *uint64   `gorm:"index" json:"recorded_by"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
}

// DeletedTask records a task moved to the trash.
type DeletedTask struct {
	ID           string     `gorm:"primarykey;type:varchar(36)" json:"id"`
	TaskID       uint64     `gorm:"not null;uniqueIndex" json:"task_id"`
	Status       TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
	TaskSnapshot `gorm:"embedded"`
	RecordedBy   *uint64   `gorm:"index" json:"recorded_by"`
	RecordedAt   time.Time `gorm:"not null;index" json:"recorded_at"`
}
