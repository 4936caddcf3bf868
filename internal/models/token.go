package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issues by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Claims carried by a verified access token
type AccessClaims struct {
	TokenID   string
	UserID    uuid.UUID
	Role      Role
	FirstName string
	LastName  string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Result of successful authentication
type LoginResult struct {
	User             User
	Tokens           TokenPair
	ProfileCompleted bool
}
