package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/handlers/middleware"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/service/billing"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	billingService BillingService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	asSuperuser := func(h http.Handler) http.Handler {
		return authMiddleware(middleware.RequireSuperuser()(h))
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /logout", withAuth(handleLogout(authService, logger)))

	apiuser := http.NewServeMux()
	apiuser.Handle("GET /me", withAuth(handleUserMe(userService, logger)))
	apiuser.Handle("POST /password", withAuth(handleChangePassword(userService, logger)))
	apiuser.Handle("GET /balance", withAuth(handleUserBalance(billingService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/user/", http.StripPrefix("/api/user", apiuser))
	root.Handle("GET /api/admin/users/{user_id}", asSuperuser(handleAdminGetUser(userService, logger)))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string, fp models.Fingerprint) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrWrongPassword
	Login(ctx context.Context, username string, password string, fp models.Fingerprint) (models.TokenPair, error)

	// Rotate the token pair using the refresh token
	// If token expired: has to return apperrors.ErrTokenExpired
	// If token unusable: has to return apperrors.ErrBadToken
	Refresh(ctx context.Context, refresh string, fp models.Fingerprint) (models.TokenPair, error)

	// Resolve access token to the claim it carries
	Authenticate(ctx context.Context, access string) (models.AuthClaim, error)

	// Revoke the access token and the session behind it
	Logout(ctx context.Context, userID uuid.UUID, access string) error
}

type userService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current string, next string) error
}

type BillingService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (billing.Balance, error)
}
