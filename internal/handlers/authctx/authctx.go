package authctx

import (
	"context"

	"github.com/nkiryanov/authd/internal/models"
)

// Auth carries the authenticated claim together with the raw access token.
// The token is needed down the chain: logout revokes exactly the token the
// request came with.
type Auth struct {
	Claim       models.AuthClaim
	AccessToken string
}

type ctxKey string

const authKey ctxKey = "auth"

// Create a new context with the authenticated session
func New(ctx context.Context, a Auth) context.Context {
	return context.WithValue(ctx, authKey, a)
}

// Extract the authenticated session from the context
func FromContext(ctx context.Context) (Auth, bool) {
	a, ok := ctx.Value(authKey).(Auth)
	return a, ok
}
