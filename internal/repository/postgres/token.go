package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.TokenStore = (*TokenRepository)(nil)

// TokenRepository stores durable tokens by the SHA-256 digest of their value.
type TokenRepository struct {
	db *Connection
}

func NewTokenRepository(db *Connection) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(ctx context.Context, token model.Token) (model.Token, error) {
	const query = `
        INSERT INTO tokens (id, foreign_id, type, value_hash, status, expires_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING created_at, updated_at
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.ValueHash == nil {
		token.ValueHash = model.HashTokenValue(token.Value)
	}
	if token.Status == "" {
		token.Status = model.TokenStatusActive
	}

	err := r.db.conn(ctx).QueryRow(ctx, query,
		token.ID, token.ForeignID, string(token.Type), token.ValueHash, string(token.Status), token.ExpiresAt,
	).Scan(&token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return model.Token{}, fmt.Errorf("failed to create token: %w", err)
	}

	return token, nil
}

func (r *TokenRepository) FindByValue(ctx context.Context, value string) (model.Token, error) {
	const query = `
        SELECT id, foreign_id, type, value_hash, status, expires_at, created_at, updated_at
        FROM tokens WHERE value_hash = $1
    `

	var (
		t         model.Token
		tokenType string
		status    string
	)
	err := r.db.conn(ctx).QueryRow(ctx, query, model.HashTokenValue(value)).Scan(
		&t.ID, &t.ForeignID, &tokenType, &t.ValueHash, &status, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Token{}, model.ErrNotFound
		}
		return model.Token{}, fmt.Errorf("failed to get token by value: %w", err)
	}

	t.Type = model.TokenType(tokenType)
	t.Status = model.TokenStatus(status)
	t.Value = value
	return t, nil
}

// Consume is a conditional update: of concurrent callers on the same token
// only one sees a row affected, the rest get model.ErrNotFound.
func (r *TokenRepository) Consume(ctx context.Context, id uuid.UUID) error {
	const query = `
        UPDATE tokens SET status = 'INACTIVE', updated_at = NOW()
        WHERE id = $1 AND status = 'ACTIVE' AND expires_at > NOW()
    `

	tag, err := r.db.conn(ctx).Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}
