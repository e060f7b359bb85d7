package user

import (
	"fmt"
	"time"
)

// SubscriptionStatusNone is the mirror value for users who never subscribed.
const SubscriptionStatusNone = "none"

// User is the subset of the account needed for billing and access control.
// subscriptionStatus mirrors Subscription.status for list views and must not
// be used for access decisions.
type User struct {
	id                 string
	email              string
	name               string
	subscriptionStatus string
	createdAt          time.Time
	updatedAt          time.Time
}

func NewUser(id, email, name string, now time.Time) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	return &User{
		id:                 id,
		email:              email,
		name:               name,
		subscriptionStatus: SubscriptionStatusNone,
		createdAt:          now,
		updatedAt:          now,
	}, nil
}

// ReconstructUser rebuilds a user from persistence
func ReconstructUser(id, email, name, subscriptionStatus string, createdAt, updatedAt time.Time) *User {
	if subscriptionStatus == "" {
		subscriptionStatus = SubscriptionStatusNone
	}
	return &User{
		id:                 id,
		email:              email,
		name:               name,
		subscriptionStatus: subscriptionStatus,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (u *User) ID() string {
	return u.id
}

func (u *User) Email() string {
	return u.email
}

func (u *User) Name() string {
	return u.name
}

func (u *User) SubscriptionStatus() string {
	return u.subscriptionStatus
}

func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// DisplayName falls back to the email when no name was given.
func (u *User) DisplayName() string {
	if u.name != "" {
		return u.name
	}
	return u.email
}
