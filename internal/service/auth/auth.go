package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/authd/internal/apperrors"
	"github.com/nkiryanov/authd/internal/logger"
	"github.com/nkiryanov/authd/internal/models"
	"github.com/nkiryanov/authd/internal/repository"
	"github.com/nkiryanov/authd/internal/service/auth/sessionmanager"
)

// Creates billing account for just registered users
// Nil creator means billing integration is off
type BalanceCreator interface {
	CreateBalance(ctx context.Context, userID uuid.UUID) error
}

type Config struct {
	// Hasher to use during registration or login
	// If not set bcrypt hasher is used
	Hasher PasswordHasher

	// If not set noop logger is used
	Logger logger.Logger
}

// Auth service
type AuthService struct {
	// Manager of token pairs and their sessions
	sessions *sessionmanager.SessionManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term data
	userRepo repository.UserRepo

	// May be nil
	billing BalanceCreator

	l logger.Logger
}

func NewAuthService(cfg Config, userRepo repository.UserRepo, sessions *sessionmanager.SessionManager, billing BalanceCreator) (*AuthService, error) {
	if userRepo == nil || sessions == nil {
		return nil, errors.New("user repo and session manager must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	l := cfg.Logger
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		sessions: sessions,
		hasher:   hasher,
		userRepo: userRepo,
		billing:  billing,
		l:        l,
	}, nil
}

// Register creates the user and opens their first session.
// Billing balance creation is best effort: the user is registered even if
// billing is down, the account gets created later by the reconciliation job.
func (s *AuthService) Register(ctx context.Context, username string, password string, fp models.Fingerprint) (models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return models.TokenPair{}, err
	}

	if s.billing != nil {
		if err := s.billing.CreateBalance(ctx, user.ID); err != nil {
			s.l.Warn("billing balance not created", "user_id", user.ID, "error", err)
		}
	}

	return s.sessions.CreatePair(ctx, claimFor(user), fp)
}

// Login verifies the password and opens a new session.
// Wrong username and wrong password are told apart by error kind, the HTTP
// layer decides how much of that to reveal.
func (s *AuthService) Login(ctx context.Context, username string, password string, fp models.Fingerprint) (models.TokenPair, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrWrongPassword
	}

	return s.sessions.CreatePair(ctx, claimFor(user), fp)
}

// Authenticate resolves an access token to the claim it carries
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.AuthClaim, error) {
	return s.sessions.ValidateAccess(ctx, access)
}

// Refresh rotates the token pair. The claim for the new pair is re-derived
// from the user record, not copied from the old token, so permission changes
// take effect on the next rotation.
func (s *AuthService) Refresh(ctx context.Context, refresh string, fp models.Fingerprint) (models.TokenPair, error) {
	claim, err := s.sessions.ValidateRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claim.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// The user is gone but the session outlived them
		return models.TokenPair{}, fmt.Errorf("token owner not found: %w", apperrors.ErrBadToken)
	case err != nil:
		return models.TokenPair{}, err
	}

	return s.sessions.RefreshPair(ctx, refresh, claimFor(user), fp)
}

// Logout revokes the access token and the whole session behind it
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, access string) error {
	return s.sessions.Revoke(ctx, userID, access)
}

func claimFor(user models.User) models.AuthClaim {
	return models.AuthClaim{
		UserID:      user.ID,
		IsSuperuser: user.IsSuperuser,
	}
}
