package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole distinguishes back-office staff from parents.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleParent UserRole = "parent"
)

// User is an authenticated account. Parent accounts go through an approval
// workflow before their children become eligible for rosters and outings.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Approved     bool       `db:"is_approved" json:"is_approved"`
	Active       bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// ParentProfile holds the parent-facing identity attached to a parent user.
type ParentProfile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PendingParent joins a pending user with its profile and child count for the
// admin approval screen.
type PendingParent struct {
	UserID     string    `db:"user_id" json:"user_id"`
	ProfileID  string    `db:"profile_id" json:"profile_id"`
	Email      string    `db:"email" json:"email"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Phone      *string   `db:"phone" json:"phone,omitempty"`
	ChildCount int       `db:"child_count" json:"child_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RefreshToken persists issued refresh tokens.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"-"`
	UserAgent string     `db:"user_agent" json:"-"`
}

// JWTClaims is the token payload attached to authenticated requests.
// ParentProfileID is empty for admin accounts.
type JWTClaims struct {
	UserID          string   `json:"uid"`
	Role            UserRole `json:"role"`
	ParentProfileID string   `json:"pid,omitempty"`
	jwt.RegisteredClaims
}
