package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStatus is the lifecycle state of an account.
type UserStatus string

const (
	UserStatusPending  UserStatus = "PENDING"
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
)

// UserStore is the user directory.
type UserStore interface {
	// FindByUsernameOrEmail matches q against both username and email.
	// PasswordHash is only populated when withPassword is set.
	FindByUsernameOrEmail(ctx context.Context, q string, withPassword bool) (User, error)
	FindByID(ctx context.Context, id uuid.UUID) (User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create returns *ConflictError when username or email is taken.
	Create(ctx context.Context, user NewUser) (User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, update UserUpdate) error
}

// User represents a registered account.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// NewUser contains the fields of a user being registered.
type NewUser struct {
	Username     string
	Email        string
	DisplayName  string
	PasswordHash string
	Status       UserStatus
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	PasswordHash *string
	Status       *UserStatus
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.PasswordHash == nil && u.Status == nil
}
