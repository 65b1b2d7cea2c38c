package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role distinguishes office staff from administrators.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOffice Role = "office"
)

// Claims are the access token claims issued to staff accounts.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
