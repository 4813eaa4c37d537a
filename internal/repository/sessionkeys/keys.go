// Package sessionkeys is the session store key schema.
//
// The three key families are the de-facto schema of the session ledger, so the
// strings are built in exactly one place. A typo here would silently orphan
// sessions, there is nothing at the store level to catch it.
package sessionkeys

import (
	"github.com/google/uuid"
)

const (
	accessPrefix  = "access:"
	refreshPrefix = "refresh:"
	blockedPrefix = "blocked:"
)

// Key of the access binding: access:{user_id}:{access_token} -> refresh token
func Access(userID uuid.UUID, accessToken string) string {
	return accessPrefix + userID.String() + ":" + accessToken
}

// Key of the refresh binding: refresh:{user_id}:{refresh_token} -> fingerprint blob
func Refresh(userID uuid.UUID, refreshToken string) string {
	return refreshPrefix + userID.String() + ":" + refreshToken
}

// Key of the revocation marker: blocked:{user_id}:{access_token} -> "true"
func Blocked(userID uuid.UUID, accessToken string) string {
	return blockedPrefix + userID.String() + ":" + accessToken
}

// Pattern matching the refresh binding of a token whose owner is unknown
func RefreshPattern(refreshToken string) string {
	return refreshPrefix + "*:" + refreshToken
}

// Pattern matching every access binding of a user
func UserAccessPattern(userID uuid.UUID) string {
	return accessPrefix + userID.String() + ":*"
}
