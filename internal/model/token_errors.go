package model

import "errors"

// Verification failures of signed tokens. Callers outside the service layer
// only ever see ErrTokenInvalid or ErrUnauthenticated.
var (
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenPurpose   = errors.New("token purpose mismatch")
)
