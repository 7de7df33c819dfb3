package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthenticated covers bad credentials and bad refresh or access material.
	ErrUnauthenticated = errors.New("invalid credentials")
	// ErrNotActivated is returned for valid credentials of an account that is not active.
	ErrNotActivated = errors.New("account is not activated")
	// ErrConflict is matched by *ConflictError.
	ErrConflict = errors.New("already taken")
	// ErrTokenInvalid means the token is unknown, consumed, expired or of the wrong kind.
	ErrTokenInvalid = errors.New("token used or invalid")
	// ErrAlreadyActivated is returned when activating an account that is already active.
	ErrAlreadyActivated = errors.New("account already activated")
)

// ConflictError reports a uniqueness violation on a single user field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is %s", e.Field, ErrConflict.Error())
}

// Is makes errors.Is(err, ErrConflict) succeed for any field.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
