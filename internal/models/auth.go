package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the RBAC middleware.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleTeacher    UserRole = "TEACHER"
	RoleStudent    UserRole = "STUDENT"
)

// JWTClaims captures the claims issued by the school identity service.
type JWTClaims struct {
	UserID string   `json:"sub"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}
