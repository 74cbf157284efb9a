package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceTestSuite defines the test suite for UserService
type UserServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	userRepo repository.UserRepository
	auth     *AuthService
	service  *UserService

	company      Identity
	otherCompany Identity
}

func (suite *UserServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	db := newTestDB(suite.T())
	tokens, err := NewTokenService(testSecret, 0, nil)
	suite.Require().NoError(err)

	suite.userRepo = repository.NewUserRepository(db)
	suite.auth = NewAuthService(suite.userRepo, tokens, nil)
	suite.service = NewUserService(suite.userRepo)

	suite.company = suite.register("boss@acme.com")
	suite.otherCompany = suite.register("boss@globex.com")
}

func (suite *UserServiceTestSuite) register(email string) Identity {
	result, err := suite.auth.Register(suite.ctx, companySignup(email))
	suite.Require().NoError(err)
	return identityOf(result.User)
}

func (suite *UserServiceTestSuite) createEmployee(email string) *models.User {
	user, err := suite.service.CreateEmployee(suite.ctx, suite.company, companySignup(email))
	suite.Require().NoError(err)
	return user
}

func (suite *UserServiceTestSuite) TestCreateEmployee() {
	in := companySignup("worker@acme.com")
	in.Type = models.UserTypeCompany
	in.CompanyID = ptr(suite.otherCompany.TenantID)

	user, err := suite.service.CreateEmployee(suite.ctx, suite.company, in)
	suite.Require().NoError(err)
	suite.Equal(models.UserTypeEmployee, user.Type)
	suite.Require().NotNil(user.CompanyID)
	suite.Equal(suite.company.TenantID, *user.CompanyID)
	suite.True(user.IsActive)

	_, err = suite.service.CreateEmployee(suite.ctx, suite.company, companySignup("worker@acme.com"))
	suite.ErrorIs(err, ErrEmailTaken)

	bad := companySignup("mismatch@acme.com")
	bad.ConfirmPassword = "nope-nope"
	_, err = suite.service.CreateEmployee(suite.ctx, suite.company, bad)
	suite.ErrorIs(err, ErrPasswordMismatch)

	_, err = suite.service.CreateEmployee(suite.ctx, identityOf(user), companySignup("sub@acme.com"))
	suite.ErrorIs(err, ErrCompanyOnly)
}

func (suite *UserServiceTestSuite) TestListEmployees() {
	first := suite.createEmployee("a@acme.com")
	second := suite.createEmployee("b@acme.com")
	_, err := suite.service.CreateEmployee(suite.ctx, suite.otherCompany, companySignup("c@globex.com"))
	suite.Require().NoError(err)

	users, err := suite.service.ListEmployees(suite.ctx, suite.company)
	suite.Require().NoError(err)
	suite.Require().Len(users, 2)
	suite.Equal(first.ID, users[0].ID)
	suite.Equal(second.ID, users[1].ID)

	_, err = suite.service.ListEmployees(suite.ctx, identityOf(first))
	suite.ErrorIs(err, ErrCompanyOnly)
}

func (suite *UserServiceTestSuite) TestToggleEmployeeStatus() {
	employee := suite.createEmployee("toggle@acme.com")

	user, err := suite.service.ToggleEmployeeStatus(suite.ctx, suite.company, employee.ID, ptr(false))
	suite.Require().NoError(err)
	suite.False(user.IsActive)

	_, err = suite.auth.Authenticate(suite.ctx, "toggle@acme.com", "password123")
	suite.ErrorIs(err, ErrAccountDisabled)

	user, err = suite.service.ToggleEmployeeStatus(suite.ctx, suite.company, employee.ID, ptr(true))
	suite.Require().NoError(err)
	suite.True(user.IsActive)

	_, err = suite.auth.Authenticate(suite.ctx, "toggle@acme.com", "password123")
	suite.NoError(err)
}

func (suite *UserServiceTestSuite) TestToggleEmployeeStatus_Errors() {
	employee := suite.createEmployee("toggle@acme.com")

	_, err := suite.service.ToggleEmployeeStatus(suite.ctx, suite.company, 0, ptr(true))
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.service.ToggleEmployeeStatus(suite.ctx, suite.company, employee.ID, nil)
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.service.ToggleEmployeeStatus(suite.ctx, suite.otherCompany, employee.ID, ptr(false))
	suite.ErrorIs(err, ErrEmployeeNotFound)

	// a company is not its own employee
	_, err = suite.service.ToggleEmployeeStatus(suite.ctx, suite.company, suite.company.ID, ptr(false))
	suite.ErrorIs(err, ErrEmployeeNotFound)

	_, err = suite.service.ToggleEmployeeStatus(suite.ctx, identityOf(employee), employee.ID, ptr(false))
	suite.ErrorIs(err, ErrCompanyOnly)
}

func (suite *UserServiceTestSuite) TestEditEmployee() {
	employee := suite.createEmployee("edit@acme.com")
	suite.createEmployee("taken@acme.com")

	user, err := suite.service.EditEmployee(suite.ctx, suite.company, EditEmployeeInput{
		EmployeeID:      employee.ID,
		FullName:        ptr("Renamed"),
		Phone:           ptr("  "),
		Password:        "newpassword",
		ConfirmPassword: "newpassword",
	})
	suite.Require().NoError(err)
	suite.Equal("Renamed", user.FullName)
	suite.Equal(employee.Phone, user.Phone)
	suite.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("newpassword")))

	_, err = suite.service.EditEmployee(suite.ctx, suite.company, EditEmployeeInput{
		EmployeeID: employee.ID,
		Email:      ptr("Taken@acme.com"),
	})
	suite.ErrorIs(err, ErrEmailTaken)

	_, err = suite.service.EditEmployee(suite.ctx, suite.company, EditEmployeeInput{
		EmployeeID:      employee.ID,
		Password:        "newpassword",
		ConfirmPassword: "otherpassword",
	})
	suite.ErrorIs(err, ErrPasswordMismatch)

	_, err = suite.service.EditEmployee(suite.ctx, suite.otherCompany, EditEmployeeInput{EmployeeID: employee.ID})
	suite.ErrorIs(err, ErrEmployeeNotFound)

	_, err = suite.service.EditEmployee(suite.ctx, suite.company, EditEmployeeInput{})
	suite.ErrorIs(err, ErrValidation)
}

func (suite *UserServiceTestSuite) TestUpdateProfile() {
	employee := suite.createEmployee("me@acme.com")
	actor := identityOf(employee)
	sex := models.SexFemale

	user, err := suite.service.UpdateProfile(suite.ctx, actor, UpdateProfileInput{
		Username: ptr("me2"),
		Email:    ptr("Me.New@acme.com"),
		Age:      ptr(31),
		Sex:      &sex,
		Address:  &models.Address{City: "Osaka", Country: "JP"},
	})
	suite.Require().NoError(err)
	suite.Equal("me2", user.Username)
	suite.Equal("me.new@acme.com", user.Email)
	suite.Equal(models.UserTypeEmployee, user.Type)
	suite.Equal(suite.company.TenantID, *user.CompanyID)

	stored, err := suite.service.GetProfile(suite.ctx, actor)
	suite.Require().NoError(err)
	suite.Equal("Osaka", stored.Address.City)
	suite.Equal(31, *stored.Age)
	suite.True(stored.IsActive)

	_, err = suite.service.UpdateProfile(suite.ctx, actor, UpdateProfileInput{Age: ptr(-1)})
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.service.UpdateProfile(suite.ctx, actor, UpdateProfileInput{Sex: ptr(models.Sex("unknown"))})
	suite.ErrorIs(err, ErrValidation)

	_, err = suite.service.UpdateProfile(suite.ctx, actor, UpdateProfileInput{Email: ptr("boss@acme.com")})
	suite.ErrorIs(err, ErrEmailTaken)

	_, err = suite.service.UpdateProfile(suite.ctx, actor, UpdateProfileInput{Password: "longenough", ConfirmPassword: "different"})
	suite.ErrorIs(err, ErrPasswordMismatch)
}

func TestUserServiceTestSuite(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}
