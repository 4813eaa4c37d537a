package sessionmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/models"
)

// Every token this service mints carries the same subject
const tokenSubject = "authentication"

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID      uuid.UUID `json:"user_id"`
	IsSuperuser bool      `json:"is_superuser"`
}

// Stateless signer and verifier of identity claims
// Access and refresh tokens differ only in the expiry the caller stamps
type codec struct {
	key string
	alg jwt.SigningMethod
}

func newCodec(key string, alg string) (codec, error) {
	if key == "" {
		return codec{}, errors.New("secret key must not be empty")
	}

	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return codec{}, fmt.Errorf("unknown signing method %q", alg)
	}

	return codec{key: key, alg: method}, nil
}

func (c codec) Encode(claim models.AuthClaim) (string, error) {
	token := jwt.NewWithClaims(
		c.alg,
		tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   tokenSubject,
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(claim.IssuedAt),
				ExpiresAt: jwt.NewNumericDate(claim.ExpiresAt),
			},
			UserID:      claim.UserID,
			IsSuperuser: claim.IsSuperuser,
		},
	)

	signed, err := token.SignedString([]byte(c.key))
	if err != nil {
		return "", fmt.Errorf("%w. Err: %w", apperrors.ErrTokenEncode, err)
	}

	return signed, nil
}

// Decode verifies signature and structure and recovers the claim
// Expired and malformed are distinct kinds, callers branch on them differently
func (c codec) Decode(token string) (models.AuthClaim, error) {
	claims := &tokenClaims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(c.key), nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)

	switch {
	case err == nil:
		return models.AuthClaim{
			UserID:      claims.UserID,
			IsSuperuser: claims.IsSuperuser,
			IssuedAt:    numericDateTime(claims.IssuedAt),
			ExpiresAt:   numericDateTime(claims.ExpiresAt),
		}, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.AuthClaim{}, fmt.Errorf("%w. Err: %w", apperrors.ErrTokenExpired, err)
	default:
		return models.AuthClaim{}, fmt.Errorf("%w. Err: %w", apperrors.ErrTokenMalformed, err)
	}
}

func numericDateTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
