package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCompanyOnly      = errors.New("only company users can manage employees")
	ErrEmployeeNotFound = errors.New("employee not found or does not belong to your company")
)

// UserService manages employees and profiles.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateEmployee adds an employee to the caller's company.
func (s *UserService) CreateEmployee(ctx context.Context, actor Identity, input RegisterInput) (*models.User, error) {
	if !actor.IsCompany() {
		return nil, ErrCompanyOnly
	}

	input.Type = models.UserTypeEmployee
	user, err := newAccount(input)
	if err != nil {
		return nil, err
	}
	if err := ensureEmailFree(ctx, s.userRepo, user.Email, 0); err != nil {
		return nil, err
	}

	companyID := actor.TenantID
	user.CompanyID = &companyID

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %w", ErrFailedToCreateUser, err)
	}
	return user, nil
}

// ListEmployees returns the employees of the caller's company.
func (s *UserService) ListEmployees(ctx context.Context, actor Identity) ([]models.User, error) {
	if !actor.IsCompany() {
		return nil, ErrCompanyOnly
	}

	users, err := s.userRepo.ListEmployees(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return users, nil
}

// EditEmployeeInput carries the fields a company may change on an employee.
// Nil fields are left untouched.
type EditEmployeeInput struct {
	EmployeeID      uint64
	FullName        *string
	Username        *string
	Phone           *string
	Email           *string
	Password        string
	ConfirmPassword string
}

// EditEmployee updates an employee of the caller's company.
func (s *UserService) EditEmployee(ctx context.Context, actor Identity, input EditEmployeeInput) (*models.User, error) {
	if !actor.IsCompany() {
		return nil, ErrCompanyOnly
	}
	if input.EmployeeID == 0 {
		return nil, fmt.Errorf("%w: employeeId is required", ErrValidation)
	}

	employee, err := s.findEmployee(ctx, actor, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	if err := s.applyContactChanges(ctx, employee, contactChanges{
		FullName: input.FullName,
		Username: input.Username,
		Phone:    input.Phone,
		Email:    input.Email,
	}); err != nil {
		return nil, err
	}

	if input.Password != "" || input.ConfirmPassword != "" {
		hash, err := hashPassword(input.Password, input.ConfirmPassword)
		if err != nil {
			return nil, err
		}
		employee.PasswordHash = hash
	}

	if err := s.save(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// ToggleEmployeeStatus enables or disables an employee of the caller's company.
func (s *UserService) ToggleEmployeeStatus(ctx context.Context, actor Identity, employeeID uint64, active *bool) (*models.User, error) {
	if !actor.IsCompany() {
		return nil, ErrCompanyOnly
	}
	if employeeID == 0 {
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if active == nil {
		return nil, fmt.Errorf("%w: is_active must be a boolean", ErrValidation)
	}

	employee, err := s.findEmployee(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, employee.ID, *active); err != nil {
		return nil, fmt.Errorf("failed to update employee status: %w", err)
	}
	employee.IsActive = *active
	return employee, nil
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, actor Identity) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfileInput lists the self-service profile fields. Role, tenant and
// active flag are not part of it.
type UpdateProfileInput struct {
	FullName        *string
	Username        *string
	Phone           *string
	Email           *string
	JoiningDate     *time.Time
	Age             *int
	Sex             *models.Sex
	Address         *models.Address
	Password        string
	ConfirmPassword string
}

// UpdateProfile changes the caller's own account.
func (s *UserService) UpdateProfile(ctx context.Context, actor Identity, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if err := s.applyContactChanges(ctx, user, contactChanges{
		FullName: input.FullName,
		Username: input.Username,
		Phone:    input.Phone,
		Email:    input.Email,
	}); err != nil {
		return nil, err
	}

	if input.JoiningDate != nil {
		user.JoiningDate = input.JoiningDate
	}
	if input.Age != nil {
		if *input.Age < 0 {
			return nil, fmt.Errorf("%w: age cannot be negative", ErrValidation)
		}
		user.Age = input.Age
	}
	if input.Sex != nil {
		switch *input.Sex {
		case models.SexMale, models.SexFemale, models.SexOther:
			user.Sex = input.Sex
		default:
			return nil, fmt.Errorf("%w: sex must be male, female or other", ErrValidation)
		}
	}
	if input.Address != nil {
		user.Address = *input.Address
	}

	if input.Password != "" {
		hash, err := hashPassword(input.Password, input.ConfirmPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

type contactChanges struct {
	FullName *string
	Username *string
	Phone    *string
	Email    *string
}

// applyContactChanges copies non-empty contact fields onto user, checking
// email uniqueness first.
func (s *UserService) applyContactChanges(ctx context.Context, user *models.User, c contactChanges) error {
	if c.Email != nil {
		email := normalizeEmail(*c.Email)
		if email != "" && email != user.Email {
			if err := ensureEmailFree(ctx, s.userRepo, email, user.ID); err != nil {
				return err
			}
			user.Email = email
		}
	}
	if v := trimmed(c.FullName); v != "" {
		user.FullName = v
	}
	if v := trimmed(c.Username); v != "" {
		user.Username = v
	}
	if v := trimmed(c.Phone); v != "" {
		user.Phone = v
	}
	return nil
}

func (s *UserService) findEmployee(ctx context.Context, actor Identity, employeeID uint64) (*models.User, error) {
	employee, err := s.userRepo.FindEmployee(ctx, actor.TenantID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return employee, nil
}

func (s *UserService) save(ctx context.Context, user *models.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
