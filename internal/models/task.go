package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusExpired    TaskStatus = "expired"
	TaskStatusDeleted    TaskStatus = "deleted"
)

// Open reports whether the task can still be worked on.
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// Terminal reports whether no further transition is possible.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusDeleted
}

// OpenStatuses lists the statuses the expiry sweep looks at.
var OpenStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

// TaskStyle holds presentation settings chosen by the client.
type TaskStyle struct {
	TaskColor             string `gorm:"type:varchar(50)" json:"task_color"`
	TaskFontFamily        string `gorm:"type:varchar(100)" json:"task_font_family"`
	DescriptionColor      string `gorm:"type:varchar(50)" json:"description_color"`
	DescriptionFontFamily string `gorm:"type:varchar(100)" json:"description_font_family"`
}

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	CompanyID   uint64       `gorm:"not null;index" json:"company_id"`
	CreatedBy   uint64       `gorm:"not null;index" json:"created_by"`
	IsPublic    bool         `gorm:"not null" json:"is_public"`
	FromDate    *time.Time   `json:"from_date"`
	ToDate      time.Time    `gorm:"not null;index" json:"to_date"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	TaskStyle   `gorm:"embedded"`
	IsFavorite  bool       `gorm:"not null" json:"is_favorite"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsDeleted   bool       `gorm:"not null;index" json:"is_deleted"`

	StatusUpdatedBy *uint64    `json:"status_updated_by"`
	StatusUpdatedAt *time.Time `json:"status_updated_at"`
	CompletedBy     *uint64    `json:"completed_by"`
	CompletedAt     *time.Time `json:"completed_at"`
	ExpiredAt       *time.Time `json:"expired_at"`
	DeletedAt       *time.Time `json:"deleted_at"`
	AssignedAt      *time.Time `json:"assigned_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Creator     User             `gorm:"foreignKey:CreatedBy" json:"-"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"-"`
}

// AssigneeIDs returns the ids of the targeted assignees.
func (t *Task) AssigneeIDs() []uint64 {
	ids := make([]uint64, 0, len(t.Assignments))
	for _, a := range t.Assignments {
		ids = append(ids, a.UserID)
	}
	return ids
}

// IsAssignee reports whether userID is one of the task's assignees.
func (t *Task) IsAssignee(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// Overdue reports whether an open task has passed its due date at now.
func (t *Task) Overdue(now time.Time) bool {
	return !t.IsDeleted && t.Status.Open() && t.ToDate.Before(now)
}

// Snapshot copies the task fields kept by history and trash records.
func (t *Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		Title:           t.Title,
		Description:     t.Description,
		CompanyID:       t.CompanyID,
		CreatedBy:       t.CreatedBy,
		AssigneeIDs:     t.AssigneeIDs(),
		IsPublic:        t.IsPublic,
		FromDate:        t.FromDate,
		ToDate:          t.ToDate,
		Priority:        t.Priority,
		TaskStyle:       t.TaskStyle,
		IsFavorite:      t.IsFavorite,
		StatusUpdatedBy: t.StatusUpdatedBy,
		StatusUpdatedAt: t.StatusUpdatedAt,
		CompletedBy:     t.CompletedBy,
		CompletedAt:     t.CompletedAt,
		ExpiredAt:       t.ExpiredAt,
		DeletedAt:       t.DeletedAt,
		TaskCreatedAt:   t.CreatedAt,
	}
}
