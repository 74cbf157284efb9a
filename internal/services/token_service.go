package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrEmptySecret  = errors.New("token signing secret is empty")
)

// Identity is what a verified token says about the caller.
type Identity struct {
	ID       uint64
	Role     models.UserType
	TenantID uint64
}

// IsCompany reports whether the caller acts as a company.
func (i Identity) IsCompany() bool {
	return i.Role == models.UserTypeCompany
}

type tokenClaims struct {
	UserID   uint64          `json:"uid"`
	Role     models.UserType `json:"role"`
	TenantID uint64          `json:"tid"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 access tokens.
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	now        Clock
}

// NewTokenService creates a TokenService. A nil clock uses the system clock
// and a non-positive ttl falls back to one hour.
func NewTokenService(secret string, ttl time.Duration, clock Clock) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	return &TokenService{
		signingKey: []byte(secret),
		ttl:        ttl,
		now:        clock,
	}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (s *TokenService) Issue(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := tokenClaims{
		UserID:   user.ID,
		Role:     user.Type,
		TenantID: user.TenantID(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the caller's identity.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.UserID == 0 || claims.TenantID == 0 || !claims.Role.Valid() {
		return Identity{}, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}

	return Identity{
		ID:       claims.UserID,
		Role:     claims.Role,
		TenantID: claims.TenantID,
	}, nil
}
