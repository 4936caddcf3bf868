package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Role is a closed set of account kinds
type Role string

const (
	RoleJobseeker Role = "jobseeker"
	RoleCompany   Role = "company"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleJobseeker, RoleCompany, RoleAdmin:
		return true
	default:
		return false
	}
}

// Is reports whether the role is one of the given ones
func (r Role) Is(roles ...Role) bool {
	return slices.Contains(roles, r)
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	FirstName      string
	LastName       string
	Email          string
	HashedPassword string
	Role           Role

	// One-time code state; empty code means there is no pending challenge
	OTPCode      string
	OTPExpiresAt *time.Time

	// Single active refresh token; empty means the user is logged out
	RefreshToken string
}
