package user

import "context"

// Repository defines the interface for user data operations
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user, returning nil when it does not exist
	GetByID(ctx context.Context, id string) (*User, error)

	// UpdateSubscriptionStatus writes the denormalized subscription mirror
	UpdateSubscriptionStatus(ctx context.Context, id string, status string) error
}
