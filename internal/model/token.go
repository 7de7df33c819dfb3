package model

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Purpose tags a signed token with the flow it belongs to.
type Purpose int

const (
	PurposeAccess Purpose = iota + 1
	PurposeRefresh
	PurposeResetPassword
	PurposeActivateAccount
)

func (p Purpose) String() string {
	switch p {
	case PurposeAccess:
		return "ACCESS"
	case PurposeRefresh:
		return "REFRESH"
	case PurposeResetPassword:
		return "RESET_PASSWORD"
	case PurposeActivateAccount:
		return "ACTIVATE_ACCOUNT"
	default:
		return fmt.Sprintf("Purpose(%d)", int(p))
	}
}

// TokenType returns the durable token type backing p. Access tokens are never stored.
func (p Purpose) TokenType() (TokenType, bool) {
	switch p {
	case PurposeRefresh:
		return TokenTypeRefresh, true
	case PurposeResetPassword:
		return TokenTypeResetPassword, true
	case PurposeActivateAccount:
		return TokenTypeActivateAccount, true
	default:
		return "", false
	}
}

// TokenType is the type of a durable token row.
type TokenType string

const (
	TokenTypeActivateAccount TokenType = "ACTIVATE_ACCOUNT"
	TokenTypeResetPassword   TokenType = "RESET_PASSWORD"
	TokenTypeRefresh         TokenType = "REFRESH_TOKEN"
)

// TokenStatus is the state of a durable token. INACTIVE is terminal.
type TokenStatus string

const (
	TokenStatusActive   TokenStatus = "ACTIVE"
	TokenStatusInactive TokenStatus = "INACTIVE"
)

// TokenStore persists refresh, reset password and activation tokens.
type TokenStore interface {
	Create(ctx context.Context, token Token) (Token, error)
	// FindByValue returns ErrNotFound when no row backs value.
	FindByValue(ctx context.Context, value string) (Token, error)
	// Consume moves an ACTIVE, unexpired token to INACTIVE.
	// It returns ErrNotFound when the token is not in that state.
	Consume(ctx context.Context, id uuid.UUID) error
}

// Token is a durable, single-use token row.
type Token struct {
	ID        uuid.UUID
	ForeignID *uuid.UUID
	Type      TokenType
	// Value is the signed string. Stores keep only ValueHash.
	Value     string
	ValueHash []byte
	Status    TokenStatus
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the token is ACTIVE and not expired at now.
func (t Token) Usable(now time.Time) bool {
	return t.Status == TokenStatusActive && now.Before(t.ExpiresAt)
}

// HashTokenValue returns the lookup digest of a signed token value.
func HashTokenValue(value string) []byte {
	h := sha256.Sum256([]byte(value))
	return h[:]
}

// TokenManager signs and verifies tokens.
type TokenManager interface {
	Create(req TokenRequest) (SignedToken, error)
	// Verify returns ErrTokenSignature, ErrTokenExpired or ErrTokenPurpose on failure.
	Verify(value string, expected Purpose) (TokenClaims, error)
}

// SignedToken is the result of signing a TokenRequest.
type SignedToken struct {
	Value     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenRequest describes what to sign. It is implemented only by the
// request types of this package, one per Purpose.
type TokenRequest interface {
	Purpose() Purpose
	tokenRequest()
}

// AccessTokenRequest asks for an access token carrying the identity and its permissions.
type AccessTokenRequest struct {
	User        User
	Permissions []string
}

// RefreshTokenRequest asks for a refresh token carrying the identity and its permissions.
type RefreshTokenRequest struct {
	User        User
	Permissions []string
}

// ResetPasswordTokenRequest asks for a password reset token.
type ResetPasswordTokenRequest struct {
	UserID   uuid.UUID
	Username string
}

// ActivateAccountTokenRequest asks for an account activation token.
type ActivateAccountTokenRequest struct {
	UserID   uuid.UUID
	Username string
}

func (AccessTokenRequest) Purpose() Purpose          { return PurposeAccess }
func (RefreshTokenRequest) Purpose() Purpose         { return PurposeRefresh }
func (ResetPasswordTokenRequest) Purpose() Purpose   { return PurposeResetPassword }
func (ActivateAccountTokenRequest) Purpose() Purpose { return PurposeActivateAccount }

func (AccessTokenRequest) tokenRequest()          {}
func (RefreshTokenRequest) tokenRequest()         {}
func (ResetPasswordTokenRequest) tokenRequest()   {}
func (ActivateAccountTokenRequest) tokenRequest() {}

// TokenClaims are the verified contents of a signed token.
type TokenClaims struct {
	ID        string
	Subject   uuid.UUID
	Purpose   Purpose
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Identity is set for access and refresh tokens.
	Identity *IdentityClaims
	// Username is set for reset password and activation tokens.
	Username string
}

// IdentityClaims are the public identity fields embedded in access and refresh tokens.
type IdentityClaims struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name,omitempty"`
	Status      UserStatus `json:"status"`
	Permissions []string   `json:"pms"`
}

// NewIdentityClaims builds identity claims from a user and its permissions.
func NewIdentityClaims(u User, permissions []string) *IdentityClaims {
	if permissions == nil {
		permissions = []string{}
	}
	return &IdentityClaims{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Status:      u.Status,
		Permissions: permissions,
	}
}
