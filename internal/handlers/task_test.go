package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	env *testEnv

	company       *models.User
	companyToken  string
	employee1     *models.User
	employee1Tok  string
	employee2     *models.User
	employee2Tok  string
	outsiderToken string
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	t := suite.T()
	suite.env = setupTestEnv(t)

	suite.company, suite.companyToken = suite.env.signupCompany(t, "acme@example.com")
	suite.employee1, suite.employee1Tok = suite.env.signupEmployee(t, "e1@example.com", suite.company)
	suite.employee2, suite.employee2Tok = suite.env.signupEmployee(t, "e2@example.com", suite.company)

	other, _ := suite.env.signupCompany(t, "globex@example.com")
	_, suite.outsiderToken = suite.env.signupEmployee(t, "o1@example.com", other)
}

func (suite *TaskHandlerTestSuite) due(d time.Duration) string {
	return suite.env.now.Add(d).Format(time.RFC3339)
}

func (suite *TaskHandlerTestSuite) createTask(token string, payload map[string]any) dto.TaskDTO {
	w := suite.env.do(http.MethodPost, "/api/tasks", token, payload)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (suite *TaskHandlerTestSuite) list(token, query string) dto.TaskListResponse {
	w := suite.env.do(http.MethodGet, "/api/tasks"+query, token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var response dto.TaskListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func (suite *TaskHandlerTestSuite) setStatus(token string, taskID uint64, status string) *httptest.ResponseRecorder {
	return suite.env.do(http.MethodPatch, "/api/tasks/status", token, map[string]any{
		"taskId": taskID,
		"status": status,
	})
}

func titles(tasks []dto.TaskDTO) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func (suite *TaskHandlerTestSuite) TestCreateTask_PublicForCompanyWithoutAssignees() {
	task := suite.createTask(suite.companyToken, map[string]any{
		"title":       "All hands",
		"description": "Friday",
		"to_date":     suite.due(24 * time.Hour),
	})

	suite.True(task.IsPublic)
	suite.Equal(suite.company.ID, task.CompanyID)
	suite.Equal(models.TaskStatusPending, task.Status)
	suite.Empty(task.AssigneeIDs)

	suite.Contains(titles(suite.list(suite.employee1Tok, "").Tasks), "All hands")
	suite.Contains(titles(suite.list(suite.employee2Tok, "").Tasks), "All hands")
	suite.Empty(suite.list(suite.outsiderToken, "").Tasks)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_AcceptsUserIDAndUserIDs() {
	task := suite.createTask(suite.companyToken, map[string]any{
		"title":   "Pair work",
		"to_date": suite.due(time.Hour),
		"userId":  suite.employee1.ID,
		"userIds": []uint64{suite.employee2.ID},
	})

	suite.False(task.IsPublic)
	suite.ElementsMatch([]uint64{suite.employee1.ID, suite.employee2.ID}, task.AssigneeIDs)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Errors() {
	tests := []struct {
		name    string
		token   string
		payload map[string]any
		status  int
	}{
		{"missing title", suite.companyToken, map[string]any{"to_date": suite.due(time.Hour)}, http.StatusBadRequest},
		{"missing to_date", suite.companyToken, map[string]any{"title": "x"}, http.StatusBadRequest},
		{"bad date", suite.companyToken, map[string]any{"title": "x", "to_date": "tomorrow"}, http.StatusBadRequest},
		{"foreign assignee", suite.companyToken, map[string]any{"title": "x", "to_date": suite.due(time.Hour), "userId": 9999}, http.StatusBadRequest},
		{"other company", suite.employee1Tok, map[string]any{"title": "x", "to_date": suite.due(time.Hour), "companyId": 9999}, http.StatusForbidden},
		{"no token", "", map[string]any{"title": "x", "to_date": suite.due(time.Hour)}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.env.do(http.MethodPost, "/api/tasks", tt.token, tt.payload)
			suite.Equal(tt.status, w.Code, w.Body.String())
		})
	}
}

func (suite *TaskHandlerTestSuite) TestListTasks_ExpiresOverdueTasks() {
	task := suite.createTask(suite.employee1Tok, map[string]any{
		"title":   "Late already",
		"to_date": suite.due(-time.Hour),
	})

	response := suite.list(suite.employee1Tok, "")
	suite.Require().Len(response.Tasks, 1)
	suite.Equal(task.ID, response.Tasks[0].ID)
	suite.Equal(models.TaskStatusExpired, response.Tasks[0].Status)
	suite.NotNil(response.Tasks[0].ExpiredAt)

	suite.Len(suite.list(suite.employee1Tok, "?status=expired").Tasks, 1)
	suite.Empty(suite.list(suite.employee1Tok, "?status=pending").Tasks)
}

func (suite *TaskHandlerTestSuite) TestListTasks_QueryValidation() {
	w := suite.env.do(http.MethodGet, "/api/tasks?favorite=maybe", suite.companyToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(http.MethodGet, "/api/tasks?status=completed", suite.companyToken, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_Pagination() {
	for i := 0; i < 3; i++ {
		suite.createTask(suite.companyToken, map[string]any{
			"title":   fmt.Sprintf("Task %d", i),
			"to_date": suite.due(time.Duration(i+1) * time.Hour),
		})
	}

	response := suite.list(suite.companyToken, "?page=2&limit=2")
	suite.Equal(2, response.Pagination.Page)
	suite.Equal(2, response.Pagination.Limit)
	suite.EqualValues(3, response.Pagination.Total)
	suite.Equal(2, response.Pagination.TotalPages)
	suite.Equal([]string{"Task 2"}, titles(response.Tasks))
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_CompletionMovesTaskToHistory() {
	task := suite.createTask(suite.companyToken, map[string]any{
		"title":   "Shared",
		"to_date": suite.due(24 * time.Hour),
	})

	w := suite.setStatus(suite.employee1Tok, task.ID, "completed")
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	suite.NotContains(titles(suite.list(suite.employee2Tok, "").Tasks), "Shared")

	w = suite.env.do(http.MethodGet, "/api/tasks/history", suite.employee2Tok, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var history dto.TaskRecordListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &history))
	suite.Require().Len(history.Records, 1)
	suite.Equal(task.ID, history.Records[0].TaskID)
	suite.Equal(models.TaskStatusCompleted, history.Records[0].Status)
	suite.Require().NotNil(history.Records[0].CompletedBy)
	suite.Equal(suite.employee1.ID, *history.Records[0].CompletedBy)

	// repeating the transition is a no-op
	w = suite.setStatus(suite.employee1Tok, task.ID, "completed")
	suite.Equal(http.StatusOK, w.Code)
	var count int64
	suite.Require().NoError(suite.env.db.Model(&models.TaskHistory{}).Count(&count).Error)
	suite.EqualValues(1, count)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_DeleteMovesTaskToTrash() {
	task := suite.createTask(suite.employee1Tok, map[string]any{
		"title":   "Scratch",
		"to_date": suite.due(time.Hour),
	})

	w := suite.setStatus(suite.employee1Tok, task.ID, "deleted")
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.env.do(http.MethodGet, "/api/tasks/deleted", suite.companyToken, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var trash dto.TaskRecordListResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &trash))
	suite.Require().Len(trash.Records, 1)
	suite.Equal("Scratch", trash.Records[0].Title)
	suite.NotNil(trash.Records[0].DeletedAt)

	suite.Empty(suite.list(suite.companyToken, "").Tasks)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_Errors() {
	targeted := suite.createTask(suite.companyToken, map[string]any{
		"title":   "Targeted",
		"to_date": suite.due(30 * time.Minute),
		"userId":  suite.employee1.ID,
	})

	w := suite.setStatus(suite.employee2Tok, targeted.ID, "completed")
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.setStatus(suite.companyToken, targeted.ID, "expired")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidState, decodeError(suite.T(), w).Code)

	w = suite.setStatus(suite.companyToken, 9999, "completed")
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.setStatus(suite.outsiderToken, targeted.ID, "completed")
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.env.do(http.MethodPatch, "/api/tasks/status", suite.companyToken, map[string]any{"status": "completed"})
	suite.Equal(http.StatusBadRequest, w.Code)

	// past due, still inside the token lifetime
	suite.env.now = suite.env.now.Add(45 * time.Minute)
	w = suite.setStatus(suite.employee1Tok, targeted.ID, "in-progress")
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(apierrors.ErrCodeInvalidState, decodeError(suite.T(), w).Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	task := suite.createTask(suite.companyToken, map[string]any{
		"title":     "Draft",
		"to_date":   suite.due(time.Hour),
		"from_date": suite.due(0),
		"userIds":   []uint64{suite.employee1.ID},
	})
	suite.NotNil(task.FromDate)

	w := suite.env.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), suite.employee1Tok, map[string]any{
		"title":       "Final",
		"priority":    "high",
		"is_favorite": true,
		"from_date":   nil,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated dto.TaskDTO
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.Equal("Final", updated.Title)
	suite.Equal(models.TaskPriorityHigh, updated.Priority)
	suite.True(updated.IsFavorite)
	suite.Nil(updated.FromDate)
	suite.Equal([]uint64{suite.employee1.ID}, updated.AssigneeIDs)

	// only the company may retarget its own task
	w = suite.env.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), suite.employee1Tok, map[string]any{
		"userIds": []uint64{suite.employee2.ID},
	})
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.env.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), suite.companyToken, map[string]any{
		"userIds": []uint64{},
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	suite.True(updated.IsPublic)
	suite.Empty(updated.AssigneeIDs)

	w = suite.env.do(http.MethodPatch, "/api/tasks/abc", suite.companyToken, map[string]any{"title": "x"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.env.do(http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), suite.outsiderToken, map[string]any{"title": "x"})
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGenerateTasks_Disabled() {
	w := suite.env.do(http.MethodPost, "/api/tasks/generate", suite.companyToken, map[string]string{"text": "book a room"})
	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal(apierrors.ErrCodeServiceUnavailable, decodeError(suite.T(), w).Code)

	w = suite.env.do(http.MethodPost, "/api/tasks/generate", suite.companyToken, map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
