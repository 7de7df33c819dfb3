package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

// TokenService ties signed tokens to their durable rows. It composes the
// TokenManager and the TokenStore and collapses every way a presented
// token can be wrong into model.ErrTokenInvalid.
type TokenService struct {
	manager model.TokenManager
	store   model.TokenStore
	logger  *logger.Logger
	now     func() time.Time
}

func NewTokenService(manager model.TokenManager, store model.TokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger, now: time.Now}
}

// IssueAccess signs an access token. Access tokens are never stored.
func (s *TokenService) IssueAccess(user model.User, permissions []string) (model.SignedToken, error) {
	signed, err := s.manager.Create(model.AccessTokenRequest{User: user.Public(), Permissions: permissions})
	if err != nil {
		return model.SignedToken{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueDurable signs req and persists an ACTIVE row owned by ownerID that
// expires together with the signed value.
func (s *TokenService) IssueDurable(ctx context.Context, req model.TokenRequest, ownerID uuid.UUID) (model.SignedToken, error) {
	tokenType, ok := req.Purpose().TokenType()
	if !ok {
		return model.SignedToken{}, fmt.Errorf("%s tokens are not stored", req.Purpose())
	}

	signed, err := s.manager.Create(req)
	if err != nil {
		return model.SignedToken{}, fmt.Errorf("failed to sign %s token: %w", req.Purpose(), err)
	}

	owner := ownerID
	_, err = s.store.Create(ctx, model.Token{
		ForeignID: &owner,
		Type:      tokenType,
		Value:     signed.Value,
		Status:    model.TokenStatusActive,
		ExpiresAt: signed.ExpiresAt,
	})
	if err != nil {
		return model.SignedToken{}, fmt.Errorf("failed to persist %s token: %w", req.Purpose(), err)
	}

	return signed, nil
}

// Resolve finds the durable row behind value and checks it is usable for
// purpose: the row exists, has an owner, matches the purpose, is ACTIVE and
// unexpired, and the signed value verifies with a subject equal to the owner.
// Any failed check returns model.ErrTokenInvalid.
func (s *TokenService) Resolve(ctx context.Context, value string, purpose model.Purpose) (model.Token, model.TokenClaims, error) {
	tokenType, ok := purpose.TokenType()
	if !ok {
		return model.Token{}, model.TokenClaims{}, fmt.Errorf("%s tokens are not stored", purpose)
	}

	token, err := s.store.FindByValue(ctx, value)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Debug("Token service: token not found", "purpose", purpose.String())
		return model.Token{}, model.TokenClaims{}, model.ErrTokenInvalid
	}
	if err != nil {
		return model.Token{}, model.TokenClaims{}, fmt.Errorf("failed to find token: %w", err)
	}

	if token.Type != tokenType || token.ForeignID == nil || !token.Usable(s.now()) {
		s.logger.Debug("Token service: token is not usable",
			"token_id", token.ID,
			"purpose", purpose.String(),
			"type", string(token.Type),
			"status", string(token.Status))
		return model.Token{}, model.TokenClaims{}, model.ErrTokenInvalid
	}

	claims, err := s.manager.Verify(value, purpose)
	if err != nil {
		s.logger.Debug("Token service: token verification failed",
			"token_id", token.ID,
			"purpose", purpose.String(),
			"reason", err.Error())
		return model.Token{}, model.TokenClaims{}, model.ErrTokenInvalid
	}

	if claims.Subject != *token.ForeignID {
		s.logger.Warn("Token service: token subject does not match owner",
			"token_id", token.ID)
		return model.Token{}, model.TokenClaims{}, model.ErrTokenInvalid
	}

	return token, claims, nil
}

// Consume moves the token to INACTIVE. It returns model.ErrTokenInvalid when
// another caller consumed it first or it expired in the meantime.
func (s *TokenService) Consume(ctx context.Context, id uuid.UUID) error {
	err := s.store.Consume(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	return nil
}

// Authenticate verifies an access token.
func (s *TokenService) Authenticate(value string) (model.TokenClaims, error) {
	claims, err := s.manager.Verify(value, model.PurposeAccess)
	if err != nil {
		s.logger.Debug("Token service: access token rejected", "reason", err.Error())
		return model.TokenClaims{}, model.ErrUnauthenticated
	}
	return claims, nil
}
