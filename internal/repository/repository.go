package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nkiryanov/authd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	// Replace the stored password hash
	UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// Long term storage (users live here, sessions do not)
type Storage interface {
	User() UserRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
