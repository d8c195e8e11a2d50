package storage

import (
	"context"

	"github.com/mbessonov/audioscribe/internal/models"
)

// UserStorage defines interface for user persistence.
// Email uniqueness is enforced here, at the storage layer.
type UserStorage interface {
	// CreateUser creates a new user.
	// Returns ErrEmailTaken if the normalized email already exists.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by normalized email.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	// Returns ErrUserNotFound if no such user exists.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// DeleteUser removes a user; transcripts cascade.
	// Returns ErrUserNotFound if no such user exists.
	DeleteUser(ctx context.Context, userID string) error
}
