package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignupRequest is the body of POST /auth/signup and /users/create-employee.
type SignupRequest struct {
	FullName        string          `json:"full_name"`
	Username        string          `json:"username"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	Type            models.UserType `json:"type"`
	CompanyID       *uint64         `json:"companyId"`
}

func (r SignupRequest) toInput() services.RegisterInput {
	return services.RegisterInput{
		FullName:        r.FullName,
		Username:        r.Username,
		Phone:           r.Phone,
		Email:           r.Email,
		Password:        r.Password,
		ConfirmPassword: r.ConfirmPassword,
		Type:            r.Type,
		CompanyID:       r.CompanyID,
	}
}

// Signup registers a new company or employee account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAuthResponse(result))
}

// Login authenticates a user and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Email and password are required", err)
		return
	}

	result, err := h.authService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAuthResponse(result))
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, ok := requireIdentity(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), identity.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func toAuthResponse(result *services.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		User:      dto.ToUserDTO(*result.User),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
	}
}
