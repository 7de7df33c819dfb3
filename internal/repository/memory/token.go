package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.TokenStore = (*TokenRepository)(nil)

type TokenRepository struct {
	s *Store
}

func (r *TokenRepository) Create(ctx context.Context, token model.Token) (model.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.ValueHash == nil {
		token.ValueHash = model.HashTokenValue(token.Value)
	}
	if token.Status == "" {
		token.Status = model.TokenStatusActive
	}
	now := r.s.now()
	token.CreatedAt = now
	token.UpdatedAt = now

	key := string(token.ValueHash)
	r.s.tokenByHash[key] = token.ID

	stored := token
	stored.Value = ""
	r.s.tokens[token.ID] = stored

	record(ctx, func() {
		delete(r.s.tokens, token.ID)
		delete(r.s.tokenByHash, key)
	})

	return token, nil
}

func (r *TokenRepository) FindByValue(_ context.Context, value string) (model.Token, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.tokenByHash[string(model.HashTokenValue(value))]
	if !ok {
		return model.Token{}, model.ErrNotFound
	}

	token := r.s.tokens[id]
	token.Value = value
	return token, nil
}

func (r *TokenRepository) Consume(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prev, ok := r.s.tokens[id]
	if !ok || !prev.Usable(r.s.now()) {
		return model.ErrNotFound
	}

	token := prev
	token.Status = model.TokenStatusInactive
	token.UpdatedAt = r.s.now()
	r.s.tokens[id] = token

	record(ctx, func() { r.s.tokens[id] = prev })

	return nil
}
