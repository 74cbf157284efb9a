package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/services"
)

// UserHandler serves employee administration and the caller's profile.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateEmployee adds an employee to the caller's company
func (h *UserHandler) CreateEmployee(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.CreateEmployee(c.Request.Context(), identity, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Employee created successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// ToggleStatus enables or disables an employee
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	type ToggleStatusRequest struct {
		UserID   uint64 `json:"userId"`
		IsActive *bool  `json:"is_active"`
	}

	var req ToggleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "userId and a boolean is_active are required")
		return
	}

	user, err := h.userService.ToggleEmployeeStatus(c.Request.Context(), identity, req.UserID, req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Employee status updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// ListEmployees returns the employees of the caller's company
func (h *UserHandler) ListEmployees(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	users, err := h.userService.ListEmployees(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees": dto.ToUserDTOs(users),
	})
}

// EditEmployee updates contact details or the password of an employee
func (h *UserHandler) EditEmployee(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	type EditEmployeeRequest struct {
		EmployeeID      uint64  `json:"employeeId"`
		FullName        *string `json:"full_name"`
		Username        *string `json:"username"`
		Phone           *string `json:"phone"`
		Email           *string `json:"email"`
		Password        string  `json:"password"`
		ConfirmPassword string  `json:"confirm_password"`
	}

	var req EditEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.EditEmployee(c.Request.Context(), identity, services.EditEmployeeInput{
		EmployeeID:      req.EmployeeID,
		FullName:        req.FullName,
		Username:        req.Username,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Employee updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// GetProfile returns the caller's own account
func (h *UserHandler) GetProfile(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": dto.ToUserDTO(*user)})
}

// UpdateProfile changes the caller's own account. Role, company and active
// flag are not accepted.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	type UpdateProfileRequest struct {
		FullName        *string         `json:"full_name"`
		Username        *string         `json:"username"`
		Phone           *string         `json:"phone"`
		Email           *string         `json:"email"`
		JoiningDate     *time.Time      `json:"joining_date"`
		Age             *int            `json:"age"`
		Sex             *models.Sex     `json:"sex"`
		Address         *models.Address `json:"address"`
		Password        string          `json:"password"`
		ConfirmPassword string          `json:"confirm_password"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), identity, services.UpdateProfileInput{
		FullName:        req.FullName,
		Username:        req.Username,
		Phone:           req.Phone,
		Email:           req.Email,
		JoiningDate:     req.JoiningDate,
		Age:             req.Age,
		Sex:             req.Sex,
		Address:         req.Address,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}
