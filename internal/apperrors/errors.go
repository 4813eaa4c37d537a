package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")

	// Token signature or structure is invalid. Reject, never retry
	ErrTokenMalformed = errors.New("token is malformed or has invalid signature")

	// Token is well formed and signed but 'exp' is in the past
	// Callers branch on it differently than on malformed tokens
	ErrTokenExpired = errors.New("token is expired")

	// Signing configuration is broken (bad key or algorithm)
	// Must map to server error, not auth error
	ErrTokenEncode = errors.New("token could not be encoded")

	// Session ledger miss: token revoked, rotated away or never issued
	// The store does not distinguish these cases and neither do we
	ErrBadToken = errors.New("bad device token")

	// Stored fingerprint blob could not be decoded
	ErrFingerprintMalformed = errors.New("fingerprint is malformed")

	// Key is not present in the session store (absent or expired by TTL)
	ErrSessionNotFound = errors.New("session key not found")
)
