package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/company-task-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when inserting the user row fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrLinkCompany is returned when a new company cannot be pointed at itself.
	ErrLinkCompany = errors.New("user repository: link company failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

// CreateCompany creates a company and sets its company_id to its own id atomically.
func (r *GormUserRepository) CreateCompany(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrCreateUser, err)
		}

		companyID := user.ID
		if err := tx.Model(user).Update("company_id", companyID).Error; err != nil {
			return fmt.Errorf("%w: %w", ErrLinkCompany, err)
		}
		user.CompanyID = &companyID

		return nil
	})
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether a user other than excludeID uses email
func (r *GormUserRepository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindEmployee finds an employee of the given company
func (r *GormUserRepository) FindEmployee(ctx context.Context, companyID, employeeID uint64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND type = ? AND company_id = ?", employeeID, models.UserTypeEmployee, companyID).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListEmployees lists the employees of a company ordered by creation
func (r *GormUserRepository) ListEmployees(ctx context.Context, companyID uint64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("type = ? AND company_id = ?", models.UserTypeEmployee, companyID).
		Order("created_at ASC, id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update saves every column of the user
func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

// SetActive flips the active flag of a user
func (r *GormUserRepository) SetActive(ctx context.Context, id uint64, active bool) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active).Error
}
