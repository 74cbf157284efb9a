package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/services"
	"github.com/yukikurage/company-task-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns the active tasks visible to the caller. Overdue tasks are
// expired before the list is built.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		Pagination: utils.GetPaginationParams(c),
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	if favorite := c.Query("favorite"); favorite != "" {
		v, err := strconv.ParseBool(favorite)
		if err != nil {
			apierrors.BadRequest(c, "favorite must be true or false")
			return
		}
		input.Favorite = &v
	}

	tasks, total, err := h.taskService.ListActiveTasks(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, input.Pagination, total))
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title                 string              `json:"title"`
	Description           string              `json:"description"`
	FromDate              *time.Time          `json:"from_date"`
	ToDate                *time.Time          `json:"to_date"`
	Priority              models.TaskPriority `json:"priority"`
	TaskColor             string              `json:"task_color"`
	TaskFontFamily        string              `json:"task_font_family"`
	DescriptionColor      string              `json:"description_color"`
	DescriptionFontFamily string              `json:"description_font_family"`
	IsFavorite            bool                `json:"is_favorite"`
	UserID                *uint64             `json:"userId"`
	UserIDs               []uint64            `json:"userIds"`
	CompanyID             *uint64             `json:"companyId"`
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), identity, services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		Priority:    req.Priority,
		Style: models.TaskStyle{
			TaskColor:             req.TaskColor,
			TaskFontFamily:        req.TaskFontFamily,
			DescriptionColor:      req.DescriptionColor,
			DescriptionFontFamily: req.DescriptionFontFamily,
		},
		IsFavorite: req.IsFavorite,
		UserID:     req.UserID,
		UserIDs:    req.UserIDs,
		CompanyID:  req.CompanyID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus moves a task through its lifecycle.
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		TaskID uint64            `json:"taskId" binding:"required"`
		Status models.TaskStatus `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "taskId and status are required", err)
		return
	}

	task, err := h.taskService.TransitionStatus(c.Request.Context(), identity, req.TaskID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task status updated successfully",
		"task":    dto.ToTaskDTO(*task),
	})
}

// UpdateTaskRequest is the body of PATCH /tasks/:id. Absent keys leave the
// field unchanged.
type UpdateTaskRequest struct {
	Title                 *string              `json:"title"`
	Description           *string              `json:"description"`
	FromDate              *time.Time           `json:"from_date"`
	ToDate                *time.Time           `json:"to_date"`
	Priority              *models.TaskPriority `json:"priority"`
	TaskColor             *string              `json:"task_color"`
	TaskFontFamily        *string              `json:"task_font_family"`
	DescriptionColor      *string              `json:"description_color"`
	DescriptionFontFamily *string              `json:"description_font_family"`
	IsFavorite            *bool                `json:"is_favorite"`
	UserID                *uint64              `json:"userId"`
	UserIDs               []uint64             `json:"userIds"`
}

// UpdateTask updates the fields of an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}
	taskID, ok := middleware.GetTaskID(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Decode twice: once for values, once to see which keys were sent
	var req UpdateTaskRequest
	var present map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := json.Unmarshal(body, &present); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	_, hasUserID := present["userId"]
	_, hasUserIDs := present["userIds"]
	fromDate, hasFromDate := present["from_date"]

	task, err := h.taskService.UpdateTask(c.Request.Context(), identity, taskID, services.UpdateTaskInput{
		Title:                 req.Title,
		Description:           req.Description,
		FromDate:              req.FromDate,
		ClearFromDate:         hasFromDate && string(fromDate) == "null",
		ToDate:                req.ToDate,
		Priority:              req.Priority,
		TaskColor:             req.TaskColor,
		TaskFontFamily:        req.TaskFontFamily,
		DescriptionColor:      req.DescriptionColor,
		DescriptionFontFamily: req.DescriptionFontFamily,
		IsFavorite:            req.IsFavorite,
		AssigneesSet:          hasUserID || hasUserIDs,
		UserID:                req.UserID,
		UserIDs:               req.UserIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// ListHistory returns completed and expired task records.
func (h *TaskHandler) ListHistory(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.taskService.ListHistory(c.Request.Context(), identity, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryListResponse(records, params, total))
}

// ListDeleted returns the trash records.
func (h *TaskHandler) ListDeleted(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.taskService.ListDeleted(c.Request.Context(), identity, params)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeletedListResponse(records, params, total))
}

// GenerateTasks uses AI to draft tasks from natural language text
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	if _, ok := requireIdentity(c); !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "text is required", err)
		return
	}

	tasks, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text: req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Tasks generated successfully",
		"tasks":   tasks,
	})
}
