package dto

import (
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID                    uint64              `json:"id"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	CompanyID             uint64              `json:"companyId"`
	CreatedBy             uint64              `json:"created_by"`
	AssigneeIDs           []uint64            `json:"userIds"`
	IsPublic              bool                `json:"is_public"`
	FromDate              *time.Time          `json:"from_date"`
	ToDate                time.Time           `json:"to_date"`
	Priority              models.TaskPriority `json:"priority"`
	TaskColor             string              `json:"task_color,omitempty"`
	TaskFontFamily        string              `json:"task_font_family,omitempty"`
	DescriptionColor      string              `json:"description_color,omitempty"`
	DescriptionFontFamily string              `json:"description_font_family,omitempty"`
	IsFavorite            bool                `json:"is_favorite"`
	Status                models.TaskStatus   `json:"status"`
	IsDeleted             bool                `json:"is_deleted"`
	StatusUpdatedBy       *uint64             `json:"status_updated_by"`
	StatusUpdatedAt       *time.Time          `json:"status_updated_at"`
	CompletedBy           *uint64             `json:"completed_by"`
	CompletedAt           *time.Time          `json:"completedAt"`
	ExpiredAt             *time.Time          `json:"expiredAt"`
	DeletedAt             *time.Time          `json:"deletedAt"`
	AssignedAt            *time.Time          `json:"assigned_at"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// TaskRecordDTO represents a history or trash record in API responses
type TaskRecordDTO struct {
	ID                    string              `json:"id"`
	TaskID                uint64              `json:"task_id"`
	Status                models.TaskStatus   `json:"status"`
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	CompanyID             uint64              `json:"companyId"`
	CreatedBy             uint64              `json:"created_by"`
	AssigneeIDs           []uint64            `json:"userIds"`
	IsPublic              bool                `json:"is_public"`
	FromDate              *time.Time          `json:"from_date"`
	ToDate                time.Time           `json:"to_date"`
	Priority              models.TaskPriority `json:"priority"`
	TaskColor             string              `json:"task_color,omitempty"`
	TaskFontFamily        string              `json:"task_font_family,omitempty"`
	DescriptionColor      string              `json:"description_color,omitempty"`
	DescriptionFontFamily string              `json:"description_font_family,omitempty"`
	IsFavorite            bool                `json:"is_favorite"`
	CompletedBy           *uint64             `json:"completed_by"`
	CompletedAt           *time.Time          `json:"completedAt"`
	ExpiredAt             *time.Time          `json:"expiredAt"`
	DeletedAt             *time.Time          `json:"deletedAt"`
	TaskCreatedAt         time.Time           `json:"task_created_at"`
	RecordedBy            *uint64             `json:"recorded_by"`
	RecordedAt            time.Time           `json:"recorded_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO                `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskRecordListResponse represents a paginated list of history or trash records
type TaskRecordListResponse struct {
	Records    []TaskRecordDTO          `json:"records"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	return TaskDTO{
		ID:                    task.ID,
		Title:                 task.Title,
		Description:           task.Description,
		CompanyID:             task.CompanyID,
		CreatedBy:             task.CreatedBy,
		AssigneeIDs:           task.AssigneeIDs(),
		IsPublic:              task.IsPublic,
		FromDate:              task.FromDate,
		ToDate:                task.ToDate,
		Priority:              task.Priority,
		TaskColor:             task.TaskColor,
		TaskFontFamily:        task.TaskFontFamily,
		DescriptionColor:      task.DescriptionColor,
		DescriptionFontFamily: task.DescriptionFontFamily,
		IsFavorite:            task.IsFavorite,
		Status:                task.Status,
		IsDeleted:             task.IsDeleted,
		StatusUpdatedBy:       task.StatusUpdatedBy,
		StatusUpdatedAt:       task.StatusUpdatedAt,
		CompletedBy:           task.CompletedBy,
		CompletedAt:           task.CompletedAt,
		ExpiredAt:             task.ExpiredAt,
		DeletedAt:             task.DeletedAt,
		AssignedAt:            task.AssignedAt,
		CreatedAt:             task.CreatedAt,
		UpdatedAt:             task.UpdatedAt,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, params utils.PaginationParams, total int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

func toRecordDTO(id string, taskID uint64, status models.TaskStatus, snap models.TaskSnapshot, by *uint64, at time.Time) TaskRecordDTO {
	assignees := snap.AssigneeIDs
	if assignees == nil {
		assignees = []uint64{}
	}
	return TaskRecordDTO{
		ID:                    id,
		TaskID:                taskID,
		Status:                status,
		Title:                 snap.Title,
		Description:           snap.Description,
		CompanyID:             snap.CompanyID,
		CreatedBy:             snap.CreatedBy,
		AssigneeIDs:           assignees,
		IsPublic:              snap.IsPublic,
		FromDate:              snap.FromDate,
		ToDate:                snap.ToDate,
		Priority:              snap.Priority,
		TaskColor:             snap.TaskColor,
		TaskFontFamily:        snap.TaskFontFamily,
		DescriptionColor:      snap.DescriptionColor,
		DescriptionFontFamily: snap.DescriptionFontFamily,
		IsFavorite:            snap.IsFavorite,
		CompletedBy:           snap.CompletedBy,
		CompletedAt:           snap.CompletedAt,
		ExpiredAt:             snap.ExpiredAt,
		DeletedAt:             snap.DeletedAt,
		TaskCreatedAt:         snap.TaskCreatedAt,
		RecordedBy:            by,
		RecordedAt:            at,
	}
}

// ToHistoryListResponse converts a page of history records
func ToHistoryListResponse(records []models.TaskHistory, params utils.PaginationParams, total int64) TaskRecordListResponse {
	items := make([]TaskRecordDTO, len(records))
	for i, r := range records {
		items[i] = toRecordDTO(r.ID, r.TaskID, r.Status, r.TaskSnapshot, r.RecordedBy, r.RecordedAt)
	}
	return TaskRecordListResponse{
		Records:    items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}

// ToDeletedListResponse converts a page of trash records
func ToDeletedListResponse(records []models.DeletedTask, params utils.PaginationParams, total int64) TaskRecordListResponse {
	items := make([]TaskRecordDTO, len(records))
	for i, r := range records {
		items[i] = toRecordDTO(r.ID, r.TaskID, r.Status, r.TaskSnapshot, r.RecordedBy, r.RecordedAt)
	}
	return TaskRecordListResponse{
		Records:    items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
