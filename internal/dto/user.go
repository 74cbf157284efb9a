package dto

import (
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
)

// UserDTO represents a user in API responses. It never carries the password hash.
type UserDTO struct {
	ID          uint64          `json:"id"`
	FullName    string          `json:"full_name"`
	Username    string          `json:"username"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Type        models.UserType `json:"type"`
	CompanyID   *uint64         `json:"companyId"`
	IsActive    bool            `json:"is_active"`
	JoiningDate *time.Time      `json:"joining_date,omitempty"`
	Age         *int            `json:"age,omitempty"`
	Sex         *models.Sex     `json:"sex,omitempty"`
	Address     *models.Address `json:"address,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// AuthResponse is returned by signup and login
type AuthResponse struct {
	User      UserDTO   `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	dto := UserDTO{
		ID:          user.ID,
		FullName:    user.FullName,
		Username:    user.Username,
		Phone:       user.Phone,
		Email:       user.Email,
		Type:        user.Type,
		CompanyID:   user.CompanyID,
		IsActive:    user.IsActive,
		JoiningDate: user.JoiningDate,
		Age:         user.Age,
		Sex:         user.Sex,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}

	if user.Address != (models.Address{}) {
		address := user.Address
		dto.Address = &address
	}

	return dto
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return items
}
