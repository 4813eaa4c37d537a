// Package integration wires the production services over a rolled back
// database transaction and a real session store so tests can drive the
// whole HTTP surface.
package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authd/internal/handlers"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/repository"
	"github.com/nkiryanov/authd/internal/repository/postgres"
	"github.com/nkiryanov/authd/internal/service/auth"
	"github.com/nkiryanov/authd/internal/service/auth/sessionmanager"
	"github.com/nkiryanov/authd/internal/service/user"
	"github.com/nkiryanov/authd/internal/testutil"
)

// Services assembled the same way the real app does it
type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	Sessions    *sessionmanager.SessionManager
}

// RunTx starts the HTTP server over a db transaction and the given session
// store, runs fn and rolls everything back
func RunTx(dbpool *pgxpool.Pool, store repository.SessionStore, t *testing.T, fn func(srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		userRepo := &postgres.UserRepo{DB: tx}

		sessions, err := sessionmanager.New(
			sessionmanager.Config{
				SecretKey:  "integration-test-secret",
				AccessTTL:  15 * time.Minute,
				RefreshTTL: 24 * time.Hour,
			},
			store,
		)
		require.NoError(t, err, "session manager should be created without errors")

		authService, err := auth.NewAuthService(auth.Config{}, userRepo, sessions, nil)
		require.NoError(t, err, "auth service should be created without errors")

		userService := user.NewService(nil, userRepo)

		srv := httptest.NewServer(handlers.NewRouter(authService, userService, nil, logger.NewNoOpLogger()))
		defer srv.Close()

		fn(srv.URL, Services{
			AuthService: authService,
			UserService: userService,
			Sessions:    sessions,
		})
	})
}
