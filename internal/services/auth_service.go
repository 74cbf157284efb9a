package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/metrics"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrPasswordMismatch     = errors.New("passwords do not match")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUnknownCompany       = errors.New("company not found")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountDisabled      = errors.New("account is disabled")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
)

// AuthService handles signup, login and token issuance.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	metrics  *metrics.Metrics
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, m *metrics.Metrics) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		metrics:  m,
	}
}

// RegisterInput represents the information needed to create an account.
type RegisterInput struct {
	FullName        string
	Username        string
	Phone           string
	Email           string
	Password        string
	ConfirmPassword string
	Type            models.UserType
	// CompanyID names the employer when Type is employee.
	CompanyID *uint64
}

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// Register creates a company or employee account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if input.Type == "" {
		input.Type = models.UserTypeCompany
	}
	if !input.Type.Valid() {
		s.metrics.AuthAttempt("signup", "invalid")
		return nil, fmt.Errorf("%w: type must be company or employee", ErrValidation)
	}

	user, err := newAccount(input)
	if err != nil {
		s.metrics.AuthAttempt("signup", "invalid")
		return nil, err
	}

	if err := ensureEmailFree(ctx, s.userRepo, user.Email, 0); err != nil {
		s.metrics.AuthAttempt("signup", "conflict")
		return nil, err
	}

	if user.Type == models.UserTypeEmployee {
		if input.CompanyID == nil || *input.CompanyID == 0 {
			s.metrics.AuthAttempt("signup", "invalid")
			return nil, fmt.Errorf("%w: companyId is required for employees", ErrValidation)
		}
		company, err := s.userRepo.FindByID(ctx, *input.CompanyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %w", ErrValidation, ErrUnknownCompany)
			}
			return nil, fmt.Errorf("failed to find company: %w", err)
		}
		if company.Type != models.UserTypeCompany {
			return nil, fmt.Errorf("%w: %w", ErrValidation, ErrUnknownCompany)
		}
		companyID := company.ID
		user.CompanyID = &companyID
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, s.createError(err)
		}
	} else if err := s.userRepo.CreateCompany(ctx, user); err != nil {
		return nil, s.createError(err)
	}

	s.metrics.AuthAttempt("signup", "success")
	return s.issue(user)
}

// Authenticate verifies credentials and signs a token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.AuthAttempt("login", "not_found")
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.IsActive {
		s.metrics.AuthAttempt("login", "disabled")
		return nil, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.AuthAttempt("login", "bad_credentials")
		return nil, ErrInvalidCredentials
	}

	s.metrics.AuthAttempt("login", "success")
	return s.issue(user)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) createError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.metrics.AuthAttempt("signup", "conflict")
		return ErrEmailTaken
	}
	return fmt.Errorf("%w: %w", ErrFailedToCreateUser, err)
}

// newAccount validates the shared signup fields and builds an active user
// with a hashed password. Tenant linkage is left to the caller.
func newAccount(input RegisterInput) (*models.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	username := strings.TrimSpace(input.Username)
	phone := strings.TrimSpace(input.Phone)
	email := normalizeEmail(input.Email)

	var missing []string
	if fullName == "" {
		missing = append(missing, "full_name")
	}
	if username == "" {
		missing = append(missing, "username")
	}
	if phone == "" {
		missing = append(missing, "phone")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	hash, err := hashPassword(input.Password, input.ConfirmPassword)
	if err != nil {
		return nil, err
	}

	return &models.User{
		FullName:     fullName,
		Username:     username,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
		Type:         input.Type,
		IsActive:     true,
	}, nil
}

func hashPassword(password, confirmation string) (string, error) {
	if len(password) < constants.MinPasswordLength {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrPasswordTooShort)
	}
	if password != confirmation {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrPasswordMismatch)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", ErrFailedToHashPassword
	}
	return string(hashed), nil
}

func ensureEmailFree(ctx context.Context, repo repository.UserRepository, email string, excludeID uint64) error {
	taken, err := repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
