package models

import (
	"time"
)

type UserType string

const (
	UserTypeCompany  UserType = "company"
	UserTypeEmployee UserType = "employee"
)

// Valid reports whether t is a known role.
func (t UserType) Valid() bool {
	return t == UserTypeCompany || t == UserTypeEmployee
}

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type Address struct {
	Street  string `gorm:"type:varchar(255)" json:"street,omitempty"`
	City    string `gorm:"type:varchar(100)" json:"city,omitempty"`
	State   string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty"`
	Zip     string `gorm:"type:varchar(20)" json:"zip,omitempty"`
}

type User struct {
	ID           uint64   `gorm:"primarykey" json:"id"`
	FullName     string   `gorm:"type:varchar(255);not null" json:"full_name"`
	Username     string   `gorm:"type:varchar(100);not null" json:"username"`
	Phone        string   `gorm:"type:varchar(50);not null" json:"phone"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"type:varchar(255);not null" json:"-"`
	Type         UserType `gorm:"type:varchar(20);not null;index" json:"type"`
	// CompanyID is the user's own id for a company and the employer's id for
	// an employee.
	CompanyID *uint64 `gorm:"index" json:"company_id"`
	IsActive  bool    `gorm:"not null" json:"is_active"`

	JoiningDate *time.Time `json:"joining_date,omitempty"`
	Age         *int       `json:"age,omitempty"`
	Sex         *Sex       `gorm:"type:varchar(10)" json:"sex,omitempty"`
	Address     Address    `gorm:"embedded;embeddedPrefix:address_" json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	CreatedTasks []Task           `gorm:"foreignKey:CreatedBy" json:"-"`
	Assignments  []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// TenantID is the company scope the user acts in.
func (u *User) TenantID() uint64 {
	if u.Type == UserTypeCompany {
		return u.ID
	}
	if u.CompanyID == nil {
		return 0
	}
	return *u.CompanyID
}
