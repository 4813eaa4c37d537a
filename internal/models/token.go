package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity carried inside a signed token
// IssuedAt and ExpiresAt are stamped by the session manager on encode
type AuthClaim struct {
	UserID      uuid.UUID
	IsSuperuser bool
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Identity recovered from a refresh token together with the token itself
type RefreshClaim struct {
	AuthClaim
	RefreshToken string
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by SessionManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
