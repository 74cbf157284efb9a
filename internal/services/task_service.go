package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/metrics"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrTaskForbidden   = errors.New("you are not allowed to modify this task")
	ErrTenantMismatch  = errors.New("companyId does not match your company")
	ErrAssigneesLocked = errors.New("only the owning company can change assignees")
	ErrInvalidAssignee = errors.New("one or more assignees are not members of the company")

	// ErrInvalidState is the parent of every rejection caused by the task's
	// current status or the requested one.
	ErrInvalidState      = errors.New("invalid task state")
	ErrInvalidStatus     = errors.New("status must be pending, in-progress, completed or deleted")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrTaskOverdue       = errors.New("task due date has passed")
	ErrTaskClosed        = errors.New("task is completed or deleted")
	ErrTaskChanged       = errors.New("task status changed concurrently")

	// ErrRecordWrite means the task row changed but its history or trash
	// record was not written. The task change is not rolled back.
	ErrRecordWrite = errors.New("task updated but its record could not be written")

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// requestableStatuses are the targets a caller may ask for. Expired is set by
// the sweep only.
var requestableStatuses = map[models.TaskStatus]bool{
	models.TaskStatusPending:    true,
	models.TaskStatusInProgress: true,
	models.TaskStatusCompleted:  true,
	models.TaskStatusDeleted:    true,
}

var allowedTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusPending:    {models.TaskStatusInProgress, models.TaskStatusCompleted, models.TaskStatusDeleted},
	models.TaskStatusInProgress: {models.TaskStatusCompleted, models.TaskStatusDeleted},
	models.TaskStatusExpired:    {models.TaskStatusDeleted},
}

func canTransition(from, to models.TaskStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TaskServiceOptions carries the optional collaborators of TaskService.
type TaskServiceOptions struct {
	AI      *AIService
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Clock   Clock
}

// TaskService owns the task lifecycle: creation, visibility, transitions,
// the expiry sweep and the history and trash records.
type TaskService struct {
	taskRepo   repository.TaskRepository
	recordRepo repository.RecordRepository
	userRepo   repository.UserRepository
	aiService  *AIService
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        Clock
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, recordRepo repository.RecordRepository, userRepo repository.UserRepository, opts TaskServiceOptions) *TaskService {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	return &TaskService{
		taskRepo:   taskRepo,
		recordRepo: recordRepo,
		userRepo:   userRepo,
		aiService:  opts.AI,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		now:        opts.Clock,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	FromDate    *time.Time
	ToDate      *time.Time
	Priority    models.TaskPriority
	Style       models.TaskStyle
	IsFavorite  bool
	// UserID and UserIDs are merged into one assignee list.
	UserID    *uint64
	UserIDs   []uint64
	CompanyID *uint64
}

// ListTasksInput represents filters for the active task list
type ListTasksInput struct {
	Status     *models.TaskStatus
	Favorite   *bool
	Pagination utils.PaginationParams
}

// UpdateTaskInput represents input for updating a task. Nil fields are left
// untouched. AssigneesSet is true when the request carried userId or userIds.
type UpdateTaskInput struct {
	Title                 *string
	Description           *string
	FromDate              *time.Time
	ClearFromDate         bool
	ToDate                *time.Time
	Priority              *models.TaskPriority
	TaskColor             *string
	TaskFontFamily        *string
	DescriptionColor      *string
	DescriptionFontFamily *string
	IsFavorite            *bool
	AssigneesSet          bool
	UserID                *uint64
	UserIDs               []uint64
}

// CreateTask creates a task for the caller. Company callers target the given
// assignees or, with none, publish the task to the whole company. Employee
// callers always get a task assigned to themselves.
func (s *TaskService) CreateTask(ctx context.Context, actor Identity, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.ToDate == nil || input.ToDate.IsZero() {
		return nil, fmt.Errorf("%w: to_date is required", ErrValidation)
	}
	if input.FromDate != nil && input.FromDate.After(*input.ToDate) {
		return nil, fmt.Errorf("%w: from_date must not be after to_date", ErrValidation)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}

	if input.CompanyID != nil && *input.CompanyID != actor.TenantID {
		return nil, ErrTenantMismatch
	}

	assignees, public, err := s.resolveAssignees(ctx, actor.Role, actor.ID, actor.TenantID, input.UserID, input.UserIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		Title:       title,
		Description: input.Description,
		CompanyID:   actor.TenantID,
		CreatedBy:   actor.ID,
		IsPublic:    public,
		FromDate:    utcPtr(input.FromDate),
		ToDate:      input.ToDate.UTC(),
		Priority:    priority,
		TaskStyle:   input.Style,
		IsFavorite:  input.IsFavorite,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(assignees) > 0 {
		task.AssignedAt = &now
	}

	if err := s.taskRepo.Create(ctx, task, assignees); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.TaskCreated(string(actor.Role), public)
	return task, nil
}

// ListActiveTasks runs the expiry sweep for the caller's company, then lists
// the non-deleted, non-completed tasks the caller can see.
func (s *TaskService) ListActiveTasks(ctx context.Context, actor Identity, input ListTasksInput) ([]models.Task, int64, error) {
	if input.Status != nil {
		switch *input.Status {
		case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusExpired:
		default:
			return nil, 0, fmt.Errorf("%w: status filter must be pending, in-progress or expired", ErrValidation)
		}
	}

	if _, err := s.SweepExpired(ctx, actor.TenantID); err != nil {
		return nil, 0, err
	}

	filter := repository.TaskFilter{
		TenantID:   actor.TenantID,
		Status:     input.Status,
		Favorite:   input.Favorite,
		Pagination: input.Pagination,
	}
	if !actor.IsCompany() {
		filter.ViewerID = actor.ID
	}

	tasks, total, err := s.taskRepo.ListActive(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// SweepExpired moves every overdue open task of the tenant to expired and
// records it in history. It returns how many tasks this call expired.
func (s *TaskService) SweepExpired(ctx context.Context, tenantID uint64) (int, error) {
	now := s.now()

	tasks, err := s.taskRepo.ListOpen(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to load open tasks: %w", err)
	}

	expired := 0
	for i := range tasks {
		task := &tasks[i]
		if !task.Overdue(now) {
			continue
		}

		done, err := s.expire(ctx, task, now)
		if err != nil {
			return expired, err
		}
		if done {
			expired++
		}
	}

	if expired > 0 {
		s.log.Info("Expired overdue tasks", zap.Uint64("company_id", tenantID), zap.Int("count", expired))
	}
	return expired, nil
}

// TransitionStatus moves a task to target on behalf of actor.
func (s *TaskService) TransitionStatus(ctx context.Context, actor Identity, taskID uint64, target models.TaskStatus) (*models.Task, error) {
	if !requestableStatuses[target] {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrInvalidStatus)
	}

	task, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, task) {
		return nil, ErrTaskForbidden
	}

	now := s.now()
	if task.Overdue(now) {
		if _, err := s.expire(ctx, task, now); err != nil {
			return nil, err
		}
		if task.Status == models.TaskStatusExpired && target != models.TaskStatusDeleted {
			return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrTaskOverdue)
		}
	}

	if task.Status == target {
		return task, nil
	}
	if !canTransition(task.Status, target) {
		return nil, fmt.Errorf("%w: %w: %s to %s", ErrInvalidState, ErrInvalidTransition, task.Status, target)
	}

	from := task.Status
	actorID := actor.ID
	fields := map[string]any{
		"status":            target,
		"status_updated_by": actorID,
		"status_updated_at": now,
	}
	switch target {
	case models.TaskStatusCompleted:
		fields["completed_by"] = actorID
		fields["completed_at"] = now
	case models.TaskStatusDeleted:
		fields["is_deleted"] = true
		fields["deleted_at"] = now
	}

	changed, err := s.taskRepo.Transition(ctx, task.ID, from, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrTaskChanged)
	}

	task.Status = target
	task.StatusUpdatedBy = &actorID
	task.StatusUpdatedAt = &now
	task.UpdatedAt = now
	switch target {
	case models.TaskStatusCompleted:
		task.CompletedBy = &actorID
		task.CompletedAt = &now
	case models.TaskStatusDeleted:
		task.IsDeleted = true
		task.DeletedAt = &now
	}
	s.metrics.TaskTransitioned(string(from), string(target))

	switch target {
	case models.TaskStatusCompleted:
		if err := s.recordHistory(ctx, task, &actorID, now); err != nil {
			return task, err
		}
	case models.TaskStatusDeleted:
		if err := s.recordDeleted(ctx, task, &actorID, now); err != nil {
			return task, err
		}
	}

	return task, nil
}

// UpdateTask edits the non-status fields of an open task and re-derives its
// assignment with the creation rules of the creator's role.
func (s *TaskService) UpdateTask(ctx context.Context, actor Identity, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadTask(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, task) {
		return nil, ErrTaskForbidden
	}
	if task.IsDeleted || task.Status.Terminal() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrTaskClosed)
	}

	// An overdue task expires before the edit, so a new due date does not
	// reopen it.
	if now := s.now(); task.Overdue(now) {
		if _, err := s.expire(ctx, task, now); err != nil {
			return nil, err
		}
		if task.IsDeleted || task.Status.Terminal() {
			return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrTaskClosed)
		}
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ToDate != nil {
		if input.ToDate.IsZero() {
			return nil, fmt.Errorf("%w: to_date cannot be empty", ErrValidation)
		}
		task.ToDate = input.ToDate.UTC()
	}
	if input.ClearFromDate {
		task.FromDate = nil
	} else if input.FromDate != nil {
		task.FromDate = utcPtr(input.FromDate)
	}
	if task.FromDate != nil && task.FromDate.After(task.ToDate) {
		return nil, fmt.Errorf("%w: from_date must not be after to_date", ErrValidation)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
		}
		task.Priority = *input.Priority
	}
	setIfPresent(&task.TaskColor, input.TaskColor)
	setIfPresent(&task.TaskFontFamily, input.TaskFontFamily)
	setIfPresent(&task.DescriptionColor, input.DescriptionColor)
	setIfPresent(&task.DescriptionFontFamily, input.DescriptionFontFamily)
	if input.IsFavorite != nil {
		task.IsFavorite = *input.IsFavorite
	}

	assignees, err := s.reassign(ctx, actor, task, input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task.UpdatedAt = now
	if len(assignees) > 0 && !sameIDs(assignees, task.AssigneeIDs()) {
		task.AssignedAt = &now
	}

	changed, err := s.taskRepo.Update(ctx, task, assignees)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if !changed {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, ErrTaskChanged)
	}

	return task, nil
}

// ListHistory lists completed and expired task records visible to the caller.
func (s *TaskService) ListHistory(ctx context.Context, actor Identity, page utils.PaginationParams) ([]models.TaskHistory, int64, error) {
	records, total, err := s.recordRepo.ListHistory(ctx, recordFilter(actor, page))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return records, total, nil
}

// ListDeleted lists trash records visible to the caller.
func (s *TaskService) ListDeleted(ctx context.Context, actor Identity, page utils.PaginationParams) ([]models.DeletedTask, int64, error) {
	records, total, err := s.recordRepo.ListDeleted(ctx, recordFilter(actor, page))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list deleted tasks: %w", err)
	}
	return records, total, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text string
}

// GenerateTasks uses AI to draft tasks from free text. Drafts are not stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", ErrValidation)
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	now := s.now()
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if aiTask.ToDate != nil && aiTask.ToDate.Before(now) {
			aiTask.ToDate = nil
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// resolveAssignees applies the creation rules for role. Employees always get
// themselves. Companies get the merged, de-duplicated list, or a public task
// when it is empty.
func (s *TaskService) resolveAssignees(ctx context.Context, role models.UserType, creatorID, tenantID uint64, userID *uint64, userIDs []uint64) ([]uint64, bool, error) {
	if role != models.UserTypeCompany {
		return []uint64{creatorID}, false, nil
	}

	requested := make([]uint64, 0, len(userIDs)+1)
	if userID != nil {
		requested = append(requested, *userID)
	}
	requested = append(requested, userIDs...)
	ids := uniqueUint64(requested)

	if len(ids) == 0 {
		return nil, true, nil
	}

	count, err := s.taskRepo.CountTenantMembers(ctx, tenantID, ids)
	if err != nil {
		return nil, false, fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(ids) {
		return nil, false, fmt.Errorf("%w: %w", ErrValidation, ErrInvalidAssignee)
	}

	return ids, false, nil
}

// reassign re-derives visibility for an update. It returns the new assignee
// list, or nil when the stored assignments stay as they are.
func (s *TaskService) reassign(ctx context.Context, actor Identity, task *models.Task, input UpdateTaskInput) ([]uint64, error) {
	creator, err := s.userRepo.FindByID(ctx, task.CreatedBy)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("task %d has no creator: %w", task.ID, err)
		}
		return nil, fmt.Errorf("failed to find task creator: %w", err)
	}

	if creator.Type != models.UserTypeCompany {
		task.IsPublic = false
		return []uint64{creator.ID}, nil
	}

	if !input.AssigneesSet {
		task.IsPublic = len(task.Assignments) == 0
		return nil, nil
	}
	if !actor.IsCompany() {
		return nil, ErrAssigneesLocked
	}

	ids, public, err := s.resolveAssignees(ctx, creator.Type, creator.ID, task.CompanyID, input.UserID, input.UserIDs)
	if err != nil {
		return nil, err
	}
	task.IsPublic = public
	if ids == nil {
		ids = []uint64{}
	}
	return ids, nil
}

func (s *TaskService) loadTask(ctx context.Context, actor Identity, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if task.CompanyID != actor.TenantID {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// expire marks task expired and appends its history record. It reports false
// when another request changed the task first, in which case task is
// reloaded with the stored state.
func (s *TaskService) expire(ctx context.Context, task *models.Task, now time.Time) (bool, error) {
	done, err := s.taskRepo.MarkExpired(ctx, task.ID, now)
	if err != nil {
		return false, fmt.Errorf("failed to expire task %d: %w", task.ID, err)
	}
	if !done {
		stored, err := s.taskRepo.FindByID(ctx, task.ID)
		if err != nil {
			return false, fmt.Errorf("failed to reload task %d: %w", task.ID, err)
		}
		*task = *stored
		return false, nil
	}

	task.Status = models.TaskStatusExpired
	task.ExpiredAt = &now
	task.StatusUpdatedAt = &now
	s.metrics.TaskExpired()

	if err := s.recordHistory(ctx, task, nil, now); err != nil {
		return true, err
	}
	return true, nil
}

func (s *TaskService) recordHistory(ctx context.Context, task *models.Task, by *uint64, at time.Time) error {
	record := &models.TaskHistory{
		ID:           uuid.NewString(),
		TaskID:       task.ID,
		Status:       task.Status,
		TaskSnapshot: task.Snapshot(),
		RecordedBy:   by,
		RecordedAt:   at,
	}
	if err := s.recordRepo.AddHistory(ctx, record); err != nil {
		s.metrics.RecordWriteFailed("history")
		s.log.Error("Failed to write task history",
			zap.Uint64("task_id", task.ID),
			zap.String("status", string(task.Status)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrRecordWrite, err)
	}
	return nil
}

func (s *TaskService) recordDeleted(ctx context.Context, task *models.Task, by *uint64, at time.Time) error {
	record := &models.DeletedTask{
		ID:           uuid.NewString(),
		TaskID:       task.ID,
		Status:       task.Status,
		TaskSnapshot: task.Snapshot(),
		RecordedBy:   by,
		RecordedAt:   at,
	}
	if err := s.recordRepo.AddDeleted(ctx, record); err != nil {
		s.metrics.RecordWriteFailed("trash")
		s.log.Error("Failed to write deleted task record",
			zap.Uint64("task_id", task.ID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrRecordWrite, err)
	}
	return nil
}

// canModify is the shared authorization rule for transitions and edits.
func canModify(actor Identity, task *models.Task) bool {
	if task.CompanyID != actor.TenantID {
		return false
	}
	if actor.IsCompany() {
		return true
	}
	if task.CreatedBy == actor.ID || task.IsAssignee(actor.ID) {
		return true
	}
	return task.IsPublic
}

func recordFilter(actor Identity, page utils.PaginationParams) repository.RecordFilter {
	filter := repository.RecordFilter{
		TenantID:   actor.TenantID,
		Pagination: page,
	}
	if !actor.IsCompany() {
		filter.ViewerID = actor.ID
	}
	return filter
}

// uniqueUint64 removes duplicate and zero values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if v == 0 {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

func sameIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uint64]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func setIfPresent(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
