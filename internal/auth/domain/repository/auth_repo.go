package repository

import (
	"context"

	"territory-run/internal/auth/domain/model"
)

// AuthRepository defines the interface for authentication data operations
type AuthRepository interface {
	// User operations
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUsersByIDs returns the users that exist among the given IDs; unknown
	// IDs are simply absent from the result.
	GetUsersByIDs(ctx context.Context, ids []string) ([]*model.User, error)

	// Device token operations
	AddFCMToken(ctx context.Context, userID, token string) error
	RemoveFCMToken(ctx context.Context, userID, token string) error
}
