package services

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/company-task-api/internal/models"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	clock := &testClock{now: baseTime}
	tokens, err := NewTokenService(testSecret, time.Hour, clock.Now)
	require.NoError(t, err)

	companyID := uint64(7)
	employee := &models.User{ID: 42, Type: models.UserTypeEmployee, CompanyID: &companyID}

	token, expiresAt, err := tokens.Issue(employee)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(time.Hour), expiresAt)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 42, Role: models.UserTypeEmployee, TenantID: 7}, identity)
	assert.False(t, identity.IsCompany())

	clock.Advance(59 * time.Minute)
	_, err = tokens.Verify(token)
	assert.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_RejectsBadTokens(t *testing.T) {
	clock := &testClock{now: baseTime}
	tokens, err := NewTokenService(testSecret, time.Hour, clock.Now)
	require.NoError(t, err)
	other, err := NewTokenService("another-secret-0123456789", time.Hour, clock.Now)
	require.NoError(t, err)

	company := &models.User{ID: 1, Type: models.UserTypeCompany}
	foreign, _, err := other.Issue(company)
	require.NoError(t, err)

	valid, _, err := tokens.Issue(company)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	noTenant, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: 3,
		Role:   models.UserTypeEmployee,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(baseTime.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: 1, Role: models.UserTypeCompany, TenantID: 1,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, tokenClaims{
		UserID: 1, Role: models.UserTypeCompany, TenantID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(baseTime.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"wrong secret":   foreign,
		"bad signature":  tampered,
		"missing tenant": noTenant,
		"no expiry":      noExpiry,
		"alg none":       noneAlg,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour, nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	clock := &testClock{now: baseTime}
	tokens, err := NewTokenService(testSecret, 0, clock.Now)
	require.NoError(t, err)

	_, expiresAt, err := tokens.Issue(&models.User{ID: 1, Type: models.UserTypeCompany})
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(time.Hour), expiresAt)
}
